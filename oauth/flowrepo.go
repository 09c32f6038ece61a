package oauth

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
)

// FlowState is what a pending consent needs to be completed: the nonce the ID
// token must echo, the PKCE verifier, and where to send the browser after.
type FlowState struct {
	Nonce        string
	CodeVerifier string
	ReturnURL    string
	CreatedAt    time.Time
}

type FlowRepo interface {
	Upsert(state string, flow *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
	// Take returns the flow and removes it in one step, so a state can only
	// be redeemed once.
	Take(state string) (*FlowState, error)
}

// InMemoryFlowRepo is a thread-safe in-memory implementation of FlowRepo.
// Entries older than ttl are treated as missing and purged on write.
type InMemoryFlowRepo struct {
	mu    sync.RWMutex
	ttl   time.Duration
	flows map[string]*FlowState
	now   func() time.Time
}

func NewInMemoryFlowRepo(ttl time.Duration) *InMemoryFlowRepo {
	return &InMemoryFlowRepo{
		ttl:   ttl,
		flows: make(map[string]*FlowState),
		now:   time.Now,
	}
}

func (r *InMemoryFlowRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeLocked()
	cp := *flow
	r.flows[state] = &cp
	return nil
}

func (r *InMemoryFlowRepo) Get(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, ok := r.flows[state]
	if !ok || r.expired(flow) {
		return nil, errors.ErrNotFound
	}
	cp := *flow
	return &cp, nil
}

func (r *InMemoryFlowRepo) Delete(state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, state)
	return nil
}

func (r *InMemoryFlowRepo) Take(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[state]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(r.flows, state)
	if r.expired(flow) {
		return nil, errors.ErrNotFound
	}
	return flow, nil
}

func (r *InMemoryFlowRepo) expired(flow *FlowState) bool {
	return r.ttl > 0 && r.now().Sub(flow.CreatedAt) > r.ttl
}

func (r *InMemoryFlowRepo) purgeLocked() {
	for state, flow := range r.flows {
		if r.expired(flow) {
			delete(r.flows, state)
		}
	}
}
