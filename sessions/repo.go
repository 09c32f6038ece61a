package sessions

import "context"

// Repo stores session state server-side, keyed by the opaque cookie value.
// Sessions never share state; Get on an unknown id returns
// errors.ErrSessionNotFound.
type Repo interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Put(ctx context.Context, sessionID string, state *State) error
	Clear(ctx context.Context, sessionID string) error
}
