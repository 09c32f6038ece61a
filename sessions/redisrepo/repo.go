package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
)

const defaultPrefix = "dashboard:session:"

// Repo keeps session state as JSON in Redis with a sliding TTL: every Put
// restarts the expiry.
type Repo struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ sessions.Repo = (*Repo)(nil)

type Option func(*Repo)

// WithPrefix namespaces keys, e.g. when several deployments share a Redis.
// An empty prefix keeps the default.
func WithPrefix(prefix string) Option {
	return func(r *Repo) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

func New(client *redis.Client, ttl time.Duration, opts ...Option) *Repo {
	r := &Repo{
		client: client,
		prefix: defaultPrefix,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *Repo) Get(ctx context.Context, sessionID string) (*sessions.State, error) {
	if sessionID == "" {
		return nil, errors.ErrSessionNotFound
	}
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.E(errors.ErrPersistence, "redisrepo.Get", "redis_get", err)
	}

	var state sessions.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.E(errors.ErrPersistence, "redisrepo.Get", "decode", err)
	}
	return &state, nil
}

func (r *Repo) Put(ctx context.Context, sessionID string, state *sessions.State) error {
	if sessionID == "" || state == nil {
		return errors.E(errors.ErrPersistence, "redisrepo.Put", "invalid_argument", nil)
	}
	stored := state.Clone()
	stored.ID = sessionID
	stored.UpdatedAt = r.now().UTC()

	data, err := json.Marshal(stored)
	if err != nil {
		return errors.E(errors.ErrPersistence, "redisrepo.Put", "encode", err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		return errors.E(errors.ErrPersistence, "redisrepo.Put", "redis_set", err)
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return errors.E(errors.ErrPersistence, "redisrepo.Clear", "redis_del", err)
	}
	return nil
}
