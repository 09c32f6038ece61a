package oauth

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestFlowRepoRoundTripAndCopy(t *testing.T) {
	r := NewInMemoryFlowRepo(time.Minute)
	flow := &FlowState{Nonce: "n1", CodeVerifier: "v1", ReturnURL: "/dashboard", CreatedAt: time.Now()}
	require.NoError(t, r.Upsert("s1", flow))

	flow.Nonce = "changed"
	got, err := r.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "n1", got.Nonce)

	got.ReturnURL = "/elsewhere"
	again, err := r.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "/dashboard", again.ReturnURL)

	require.NoError(t, r.Delete("s1"))
	_, err = r.Get("s1")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFlowRepoRejectsEmpty(t *testing.T) {
	r := NewInMemoryFlowRepo(time.Minute)
	require.Error(t, r.Upsert("", &FlowState{}))
	require.Error(t, r.Upsert("s1", nil))
	_, err := r.Get("")
	require.Error(t, err)
}

func TestFlowRepoExpiresEntries(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewInMemoryFlowRepo(15 * time.Minute)
	r.now = func() time.Time { return now }

	require.NoError(t, r.Upsert("old", &FlowState{CreatedAt: now}))

	now = now.Add(16 * time.Minute)
	_, err := r.Get("old")
	require.True(t, errors.Is(err, errors.ErrNotFound))

	require.NoError(t, r.Upsert("new", &FlowState{CreatedAt: now}))
	r.mu.RLock()
	_, stillThere := r.flows["old"]
	r.mu.RUnlock()
	require.False(t, stillThere)
}

func TestFlowRepoTakeRedeemsOnce(t *testing.T) {
	r := NewInMemoryFlowRepo(time.Minute)
	require.NoError(t, r.Upsert("s1", &FlowState{Nonce: "n1", CreatedAt: time.Now()}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if flow, err := r.Take("s1"); err == nil && flow.Nonce == "n1" {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	_, err := r.Get("s1")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestFlowRepoTakeDropsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewInMemoryFlowRepo(15 * time.Minute)
	r.now = func() time.Time { return now }
	require.NoError(t, r.Upsert("old", &FlowState{CreatedAt: now}))

	now = now.Add(16 * time.Minute)
	_, err := r.Take("old")
	require.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = r.Take("")
	require.True(t, errors.Is(err, errors.ErrNotFound))

	r.mu.RLock()
	require.Empty(t, r.flows)
	r.mu.RUnlock()
}
