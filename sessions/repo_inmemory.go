package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
)

// InMemoryRepo is an in-memory implementation of Repo.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*State
	maxAge   time.Duration
	now      func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates an in-memory session repository. Sessions older than
// maxAge (since their last Put) read as missing and are swept on the next Put;
// zero disables the check.
func NewInMemoryRepo(maxAge time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		sessions: make(map[string]*State),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

func (r *InMemoryRepo) Put(_ context.Context, sessionID string, state *State) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if state == nil {
		return fmt.Errorf("state is required")
	}

	stored := state.Clone()
	stored.ID = sessionID
	stored.UpdatedAt = r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeLocked(stored.UpdatedAt)
	r.sessions[sessionID] = stored
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, sessionID string) (*State, error) {
	if sessionID == "" {
		return nil, errors.ErrSessionNotFound
	}

	r.mu.RLock()
	state, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	if r.expired(state, r.now()) {
		_ = r.Clear(context.Background(), sessionID)
		return nil, errors.ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (r *InMemoryRepo) Clear(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *InMemoryRepo) expired(state *State, now time.Time) bool {
	return r.maxAge > 0 && now.Sub(state.UpdatedAt) > r.maxAge
}

func (r *InMemoryRepo) purgeLocked(now time.Time) {
	if r.maxAge <= 0 {
		return
	}
	for id, state := range r.sessions {
		if r.expired(state, now) {
			delete(r.sessions, id)
		}
	}
}
