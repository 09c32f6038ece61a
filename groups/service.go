package groups

import (
	"context"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/internal/ids"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"github.com/rs/zerolog/log"
)

type ReportFetcher interface {
	FetchReports(ctx context.Context, accessToken string, list []tenants.Tenant, kind reports.Kind, p reports.Params) ([]reports.Result, error)
}

type Service struct {
	repo    Repo
	fetcher ReportFetcher
	now     func() time.Time
}

func NewService(repo Repo, fetcher ReportFetcher) *Service {
	return &Service{repo: repo, fetcher: fetcher, now: time.Now}
}

// Create stores a new group. Tenant ids are taken as given; they are not
// checked against any session's authorised tenants.
func (s *Service) Create(ctx context.Context, title, description string, tenantIDs []string) (*Group, error) {
	now := s.now()
	g := &Group{
		ID:          ids.NewAt(now),
		Title:       title,
		Description: description,
		Tenants:     append([]string{}, tenantIDs...),
		Report:      []reports.Result{},
		CreatedAt:   now.UTC(),
	}
	if err := s.repo.Insert(ctx, g); err != nil {
		return nil, err
	}
	log.Info().Str("group", g.ID).Int("tenants", len(g.Tenants)).Msg("group created")
	return g.Clone(), nil
}

func (s *Service) ListAll(ctx context.Context) ([]*Group, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Group, error) {
	return s.repo.Get(ctx, id)
}

// RefreshReport fetches profit and loss for the group's tenants and replaces
// the group's cached report with it. known supplies tenant names; ids it does
// not contain are still queried.
func (s *Service) RefreshReport(ctx context.Context, accessToken, id string, known []tenants.Tenant, p reports.Params) (*Group, error) {
	g, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, accessToken, g, known, p)
}

// RefreshAll refreshes every group in creation order and stops at the first
// failure. Groups refreshed before the failure keep their new report.
func (s *Service) RefreshAll(ctx context.Context, accessToken string, known []tenants.Tenant, p reports.Params) ([]*Group, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Group, 0, len(list))
	for _, g := range list {
		refreshed, err := s.refresh(ctx, accessToken, g, known, p)
		if err != nil {
			return nil, errors.Wrapf(err, "group %s", g.ID)
		}
		out = append(out, refreshed)
	}
	return out, nil
}

func (s *Service) refresh(ctx context.Context, accessToken string, g *Group, known []tenants.Tenant, p reports.Params) (*Group, error) {
	results, err := s.fetcher.FetchReports(ctx, accessToken, tenants.Resolve(known, g.Tenants), reports.ProfitAndLoss, p)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []reports.Result{}
	}
	at := s.now().UTC()
	if err := s.repo.SetReport(ctx, g.ID, results, at); err != nil {
		return nil, err
	}
	out := g.Clone()
	out.Report = results
	out.ReportedAt = at
	return out, nil
}
