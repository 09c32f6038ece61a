package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
)

var _ groups.Repo = (*FakeGroupRepo)(nil)

// FakeGroupRepo keeps groups in memory in insertion order. It backs the
// "memory" group store driver as well as tests.
type FakeGroupRepo struct {
	lock   sync.RWMutex
	order  []string
	groups map[string]*groups.Group
}

func NewFakeGroupRepo() *FakeGroupRepo {
	return &FakeGroupRepo{
		groups: make(map[string]*groups.Group),
	}
}

func (r *FakeGroupRepo) Insert(_ context.Context, g *groups.Group) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if g.ID == "" {
		return errors.E(errors.ErrPersistence, "repofakes.Insert", "missing_id", nil)
	}
	if _, exists := r.groups[g.ID]; exists {
		return errors.E(errors.ErrPersistence, "repofakes.Insert", "duplicate_id", nil)
	}
	r.groups[g.ID] = g.Clone()
	r.order = append(r.order, g.ID)
	return nil
}

func (r *FakeGroupRepo) List(_ context.Context) ([]*groups.Group, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	out := make([]*groups.Group, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.groups[id].Clone())
	}
	return out, nil
}

func (r *FakeGroupRepo) Get(_ context.Context, id string) (*groups.Group, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "group %s", id)
	}
	return g.Clone(), nil
}

func (r *FakeGroupRepo) SetReport(_ context.Context, id string, report []reports.Result, at time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "group %s", id)
	}
	g.Report = append([]reports.Result(nil), report...)
	g.ReportedAt = at
	return nil
}
