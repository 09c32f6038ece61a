package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepoExpiresOnRead(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := NewInMemoryRepo(time.Hour)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "s1", &State{}))
	now = now.Add(59 * time.Minute)
	_, err := repo.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = repo.Get(ctx, "s1")
	require.True(t, errors.Is(err, errors.ErrSessionNotFound))
}

func TestInMemoryRepoSweepsAbandonedSessionsOnPut(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := NewInMemoryRepo(time.Hour)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "abandoned", &State{}))
	now = now.Add(30 * time.Minute)
	require.NoError(t, repo.Put(ctx, "recent", &State{}))

	now = now.Add(45 * time.Minute)
	require.NoError(t, repo.Put(ctx, "new", &State{}))

	repo.mu.RLock()
	defer repo.mu.RUnlock()
	require.NotContains(t, repo.sessions, "abandoned")
	require.Contains(t, repo.sessions, "recent")
	require.Contains(t, repo.sessions, "new")
}

func TestInMemoryRepoWithoutMaxAgeKeepsEverything(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := NewInMemoryRepo(0)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "s1", &State{}))
	now = now.Add(1000 * time.Hour)
	require.NoError(t, repo.Put(ctx, "s2", &State{}))

	_, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
}
