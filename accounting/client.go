package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/internal/obs"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
)

const (
	dateLayout = "2006-01-02"

	pathConnections   = "/connections"
	pathOrganisation  = "/api.xro/2.0/Organisation"
	pathProfitAndLoss = "/api.xro/2.0/Reports/ProfitAndLoss"
	pathBalanceSheet  = "/api.xro/2.0/Reports/BalanceSheet"
	pathInvoices      = "/api.xro/2.0/Invoices"

	tenantHeader = "xero-tenant-id"
)

// ProfitAndLossParams mirrors the report's query options. Zero values are
// left off the request.
type ProfitAndLossParams struct {
	From           time.Time
	To             time.Time
	Periods        int
	Timeframe      string // MONTH, QUARTER, YEAR
	StandardLayout bool
	PaymentsOnly   bool
}

// Client talks to the accounting platform's REST API. Calls are not retried;
// each one is bounded by the client timeout.
type Client struct {
	http    *resty.Client
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: http, timeout: timeout}
}

// Connections lists the tenants the access token is authorised for, in the
// order the platform returns them.
func (c *Client) Connections(ctx context.Context, accessToken string) ([]tenants.Tenant, error) {
	var out []tenants.Tenant
	if err := c.get(ctx, "connections", accessToken, "", pathConnections, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Organisation(ctx context.Context, accessToken, tenantID string) (Organisation, error) {
	var out organisationsEnvelope
	if err := c.get(ctx, "organisation", accessToken, tenantID, pathOrganisation, nil, &out); err != nil {
		return Organisation{}, err
	}
	if len(out.Organisations) == 0 {
		return Organisation{}, errors.E(errors.ErrUpstreamFetch, "accounting.Organisation", "empty", nil)
	}
	return out.Organisations[0], nil
}

func (c *Client) ProfitAndLoss(ctx context.Context, accessToken, tenantID string, p ProfitAndLossParams) ([]Report, error) {
	query := map[string]string{}
	if !p.From.IsZero() {
		query["fromDate"] = p.From.Format(dateLayout)
	}
	if !p.To.IsZero() {
		query["toDate"] = p.To.Format(dateLayout)
	}
	if p.Periods > 0 {
		query["periods"] = strconv.Itoa(p.Periods)
	}
	if p.Timeframe != "" {
		query["timeframe"] = p.Timeframe
	}
	if p.StandardLayout {
		query["standardLayout"] = "true"
	}
	if p.PaymentsOnly {
		query["paymentsOnly"] = "true"
	}

	var out reportsEnvelope
	if err := c.get(ctx, "profit_and_loss", accessToken, tenantID, pathProfitAndLoss, query, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

func (c *Client) BalanceSheet(ctx context.Context, accessToken, tenantID string, date time.Time) ([]Report, error) {
	query := map[string]string{}
	if !date.IsZero() {
		query["date"] = date.Format(dateLayout)
	}
	var out reportsEnvelope
	if err := c.get(ctx, "balance_sheet", accessToken, tenantID, pathBalanceSheet, query, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

func (c *Client) Invoices(ctx context.Context, accessToken, tenantID string) ([]Invoice, error) {
	var out invoicesEnvelope
	if err := c.get(ctx, "invoices", accessToken, tenantID, pathInvoices, nil, &out); err != nil {
		return nil, err
	}
	return out.Invoices, nil
}

func (c *Client) get(ctx context.Context, operation, accessToken, tenantID, path string, query map[string]string, out any) (err error) {
	defer obs.ObserveUpstream(operation, time.Now(), &err)
	op := "accounting." + operation

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := c.http.R().SetContext(ctx).SetAuthToken(accessToken)
	if tenantID != "" {
		req.SetHeader(tenantHeader, tenantID)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	var resp *resty.Response
	resp, err = req.Get(path)
	if err != nil {
		return errors.E(errors.ErrUpstreamFetch, op, "transport", err)
	}
	if resp.IsError() {
		return errors.E(errors.ErrUpstreamFetch, op, fmt.Sprintf("status_%d", resp.StatusCode()), errors.New(truncate(resp.String(), 200)))
	}
	if err = json.Unmarshal(resp.Body(), out); err != nil {
		return errors.E(errors.ErrUpstreamFetch, op, "decode", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
