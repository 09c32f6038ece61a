// Package groups keeps user-defined collections of tenants together with the
// last report computed for them.
package groups

import (
	"context"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/reports"
)

// Group is a named list of tenant ids. Tenants keeps the order and any
// duplicates the user submitted. Report holds the most recent report fetched
// for the group and is replaced, never appended to, on each refresh.
type Group struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Tenants     []string         `json:"tenants"`
	Report      []reports.Result `json:"report"`
	ReportedAt  time.Time        `json:"reportedAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Repo persists groups. List returns groups in creation order. Get returns
// errors.ErrNotFound for an unknown id; other failures are
// errors.ErrPersistence.
type Repo interface {
	Insert(ctx context.Context, g *Group) error
	List(ctx context.Context) ([]*Group, error)
	Get(ctx context.Context, id string) (*Group, error)
	SetReport(ctx context.Context, id string, report []reports.Result, at time.Time) error
}

// Clone copies the group's slices so callers can't reach stored state.
func (g *Group) Clone() *Group {
	cp := *g
	cp.Tenants = append([]string(nil), g.Tenants...)
	cp.Report = append([]reports.Result(nil), g.Report...)
	return &cp
}
