package reports_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind     string
	tenantID string
}

type stubFetcher struct {
	calls    []call
	failOn   string
	reports  map[string][]accounting.Report
	invoices map[string][]accounting.Invoice
}

func (s *stubFetcher) ProfitAndLoss(_ context.Context, _ string, tenantID string, _ accounting.ProfitAndLossParams) ([]accounting.Report, error) {
	s.calls = append(s.calls, call{"pnl", tenantID})
	if tenantID == s.failOn {
		return nil, errors.E(errors.ErrUpstreamFetch, "stub", "status_500", nil)
	}
	return s.reports[tenantID], nil
}

func (s *stubFetcher) BalanceSheet(_ context.Context, _ string, tenantID string, _ time.Time) ([]accounting.Report, error) {
	s.calls = append(s.calls, call{"bs", tenantID})
	if tenantID == s.failOn {
		return nil, fmt.Errorf("connection reset")
	}
	return s.reports[tenantID], nil
}

func (s *stubFetcher) Invoices(_ context.Context, _ string, tenantID string) ([]accounting.Invoice, error) {
	s.calls = append(s.calls, call{"inv", tenantID})
	if tenantID == s.failOn {
		return nil, errors.E(errors.ErrUpstreamFetch, "stub", "transport", nil)
	}
	return s.invoices[tenantID], nil
}

var three = []tenants.Tenant{
	{ID: "t1", Name: "One"},
	{ID: "t2", Name: "Two"},
	{ID: "t3", Name: "Three"},
}

func TestFetchReportsFlattensInTenantOrder(t *testing.T) {
	f := &stubFetcher{reports: map[string][]accounting.Report{
		"t1": {{ReportID: "a"}},
		"t2": {{ReportID: "b"}, {ReportID: "c"}},
		"t3": {{ReportID: "d"}},
	}}
	agg := reports.NewAggregator(f)

	got, err := agg.FetchReports(context.Background(), "tok", three, reports.ProfitAndLoss, reports.Params{})
	require.NoError(t, err)
	require.Equal(t, []call{{"pnl", "t1"}, {"pnl", "t2"}, {"pnl", "t3"}}, f.calls)

	require.Len(t, got, 4)
	ids := []string{}
	for _, r := range got {
		ids = append(ids, r.TenantID+"/"+r.Report.ReportID)
	}
	require.Equal(t, []string{"t1/a", "t2/b", "t2/c", "t3/d"}, ids)
	require.Equal(t, "Two", got[2].TenantName)
}

func TestFetchReportsIsAllOrNothing(t *testing.T) {
	f := &stubFetcher{failOn: "t2", reports: map[string][]accounting.Report{"t1": {{ReportID: "a"}}}}
	agg := reports.NewAggregator(f)

	got, err := agg.FetchReports(context.Background(), "tok", three, reports.ProfitAndLoss, reports.Params{})
	require.Nil(t, got)
	require.True(t, errors.Is(err, errors.ErrUpstreamFetch))
	require.Equal(t, "status_500", errors.CauseOf(err))
	require.Equal(t, []call{{"pnl", "t1"}, {"pnl", "t2"}}, f.calls)
}

func TestFetchReportsTagsPlainErrors(t *testing.T) {
	f := &stubFetcher{failOn: "t1"}
	agg := reports.NewAggregator(f)

	_, err := agg.FetchReports(context.Background(), "tok", three, reports.BalanceSheet, reports.Params{})
	require.True(t, errors.Is(err, errors.ErrUpstreamFetch))
	require.Equal(t, "fetch", errors.CauseOf(err))
}

func TestFetchReportsNoTenants(t *testing.T) {
	agg := reports.NewAggregator(&stubFetcher{})
	got, err := agg.FetchReports(context.Background(), "tok", nil, reports.ProfitAndLoss, reports.Params{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFetchInvoicesTagsTenant(t *testing.T) {
	f := &stubFetcher{invoices: map[string][]accounting.Invoice{
		"t1": {{Type: accounting.InvoiceTypeReceivable}},
		"t3": {{Type: accounting.InvoiceTypePayable}},
	}}
	agg := reports.NewAggregator(f)

	got, err := agg.FetchInvoices(context.Background(), "tok", three)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "t1", got[0].TenantID)
	require.Equal(t, "One", got[0].TenantName)
	require.Equal(t, "t3", got[1].TenantID)
	require.Equal(t, "Three", got[1].TenantName)
}

func TestFetchInvoicesFailure(t *testing.T) {
	f := &stubFetcher{failOn: "t3"}
	got, err := reports.NewAggregator(f).FetchInvoices(context.Background(), "tok", three)
	require.Nil(t, got)
	require.True(t, errors.Is(err, errors.ErrUpstreamFetch))
	require.Len(t, f.calls, 3)
}
