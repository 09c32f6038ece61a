// Package reports fans report and invoice requests out over a session's
// tenants and merges the answers.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"github.com/rs/zerolog/log"
)

// Kind selects which report FetchReports asks each tenant for.
type Kind int

const (
	ProfitAndLoss Kind = iota
	BalanceSheet
)

func (k Kind) String() string {
	switch k {
	case ProfitAndLoss:
		return "profit_and_loss"
	case BalanceSheet:
		return "balance_sheet"
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// Params are passed to every tenant's report call. Date is only used for the
// balance sheet; the rest only for profit and loss.
type Params struct {
	accounting.ProfitAndLossParams
	Date time.Time
}

// Result is one upstream report tagged with the tenant it came from.
type Result struct {
	TenantID   string            `json:"tenantId" bson:"tenantId"`
	TenantName string            `json:"tenantName" bson:"tenantName"`
	Report     accounting.Report `json:"report" bson:"report"`
}

// Fetcher is the part of the accounting client the aggregator needs.
type Fetcher interface {
	ProfitAndLoss(ctx context.Context, accessToken, tenantID string, p accounting.ProfitAndLossParams) ([]accounting.Report, error)
	BalanceSheet(ctx context.Context, accessToken, tenantID string, date time.Time) ([]accounting.Report, error)
	Invoices(ctx context.Context, accessToken, tenantID string) ([]accounting.Invoice, error)
}

type Aggregator struct {
	api Fetcher
}

func NewAggregator(api Fetcher) *Aggregator {
	return &Aggregator{api: api}
}

// FetchReports asks each tenant in turn and flattens the reports in tenant
// order. The first failure aborts the whole fetch; no partial result is
// returned.
func (a *Aggregator) FetchReports(ctx context.Context, accessToken string, list []tenants.Tenant, kind Kind, p Params) ([]Result, error) {
	var out []Result
	for _, t := range list {
		var (
			reps []accounting.Report
			err  error
		)
		switch kind {
		case ProfitAndLoss:
			reps, err = a.api.ProfitAndLoss(ctx, accessToken, t.ID, p.ProfitAndLossParams)
		case BalanceSheet:
			reps, err = a.api.BalanceSheet(ctx, accessToken, t.ID, p.Date)
		default:
			return nil, errors.E(errors.ErrUpstreamFetch, "reports.FetchReports", "unknown_kind", fmt.Errorf("%s", kind))
		}
		if err != nil {
			log.Warn().Err(err).Str("tenant", t.ID).Stringer("kind", kind).Msg("report fetch failed")
			return nil, tagUpstream("reports.FetchReports", err)
		}
		for _, r := range reps {
			out = append(out, Result{TenantID: t.ID, TenantName: t.Name, Report: r})
		}
	}
	return out, nil
}

// FetchInvoices collects every tenant's invoices, each tagged with its
// tenant, in tenant order. All-or-nothing like FetchReports.
func (a *Aggregator) FetchInvoices(ctx context.Context, accessToken string, list []tenants.Tenant) ([]accounting.Invoice, error) {
	var out []accounting.Invoice
	for _, t := range list {
		invs, err := a.api.Invoices(ctx, accessToken, t.ID)
		if err != nil {
			log.Warn().Err(err).Str("tenant", t.ID).Msg("invoice fetch failed")
			return nil, tagUpstream("reports.FetchInvoices", err)
		}
		for _, inv := range invs {
			inv.TenantID = t.ID
			inv.TenantName = t.Name
			out = append(out, inv)
		}
	}
	return out, nil
}

// tagUpstream keeps an already tagged error as is and tags anything else.
func tagUpstream(op string, err error) error {
	if errors.KindOf(err) != nil {
		return err
	}
	return errors.E(errors.ErrUpstreamFetch, op, "fetch", err)
}
