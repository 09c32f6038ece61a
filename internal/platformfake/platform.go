// Package platformfake runs an in-process stand-in for the identity and
// accounting platform: OIDC discovery, JWKS, the token endpoint, the
// connections list and the report/invoice API. Tokens are real RS256 JWTs so
// go-oidc verification runs unmodified against it.
package platformfake

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
)

const (
	ClientID     = "fake-client"
	ClientSecret = "fake-secret"
	keyID        = "fake-key-1"

	PathAuthorize = "/identity/connect/authorize"
	PathToken     = "/connect/token"
	PathJWKS      = "/.well-known/openid-configuration/jwks"
)

// Call is one recorded accounting API request.
type Call struct {
	Path     string
	TenantID string
	Query    url.Values
}

type grant struct {
	nonce     string
	challenge string
}

type Platform struct {
	Server *httptest.Server

	mu            sync.Mutex
	key           *KeyPair
	tenants       []tenants.Tenant
	profitLoss    map[string][]accounting.Report
	balanceSheets map[string][]accounting.Report
	invoices      map[string][]map[string]any
	organisations map[string]accounting.Organisation
	failures      map[string]int
	codes         map[string]grant
	accessTokens  map[string]bool
	refreshTokens map[string]bool
	denyRefresh   bool
	tokenFailure  int
	tokenStall    time.Duration
	accessTTL     time.Duration
	calls         []Call
	counter       int
}

// New starts the fake platform and stops it when the test ends.
func New(t testing.TB) *Platform {
	t.Helper()
	key, err := GenerateRSAKeyPair(keyID, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	p := &Platform{
		key:           key,
		profitLoss:    map[string][]accounting.Report{},
		balanceSheets: map[string][]accounting.Report{},
		invoices:      map[string][]map[string]any{},
		organisations: map[string]accounting.Organisation{},
		failures:      map[string]int{},
		codes:         map[string]grant{},
		accessTokens:  map[string]bool{},
		refreshTokens: map[string]bool{},
		accessTTL:     30 * time.Minute,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("GET "+PathJWKS, p.jwks)
	mux.HandleFunc("POST "+PathToken, p.token)
	mux.HandleFunc("GET /connections", p.api(p.connections))
	mux.HandleFunc("GET /api.xro/2.0/Organisation", p.api(p.organisation))
	mux.HandleFunc("GET /api.xro/2.0/Reports/ProfitAndLoss", p.api(p.profitAndLoss))
	mux.HandleFunc("GET /api.xro/2.0/Reports/BalanceSheet", p.api(p.balanceSheet))
	mux.HandleFunc("GET /api.xro/2.0/Invoices", p.api(p.invoiceList))

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Platform) URL() string {
	return p.Server.URL
}

// AddTenant connects a tenant with a one-report P&L whose net profit is
// netProfit, and an organisation record.
func (p *Platform) AddTenant(id, name, netProfit string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tenants = append(p.tenants, tenants.Tenant{ID: id, Name: name, Type: "ORGANISATION", ConnectionID: "conn-" + id})
	p.profitLoss[id] = []accounting.Report{ProfitAndLossReport(name, netProfit)}
	p.balanceSheets[id] = []accounting.Report{{ReportID: "BalanceSheet", ReportName: "Balance Sheet", ReportTitles: []string{"Balance Sheet", name}}}
	p.organisations[id] = accounting.Organisation{OrganisationID: "org-" + id, Name: name, BaseCurrency: "NZD"}
}

// SetInvoices replaces the tenant's invoices. Each invoice needs at least
// "Type" and "DateString".
func (p *Platform) SetInvoices(tenantID string, invoices ...map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invoices[tenantID] = invoices
}

// FailTenant makes every API call for tenantID answer with status.
func (p *Platform) FailTenant(tenantID string, status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[tenantID] = status
}

// DenyRefresh rejects refresh_token grants.
func (p *Platform) DenyRefresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denyRefresh = true
}

// FailTokenEndpoint makes the token endpoint answer with status.
func (p *Platform) FailTokenEndpoint(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenFailure = status
}

// StallTokenEndpoint holds every token request for d, or until the caller
// gives up, before answering.
func (p *Platform) StallTokenEndpoint(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenStall = d
}

// SetAccessTTL changes the lifetime of newly issued access tokens.
func (p *Platform) SetAccessTTL(ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accessTTL = ttl
}

// Calls returns the recorded API calls.
func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsTo filters recorded calls by path suffix.
func (p *Platform) CallsTo(suffix string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if strings.HasSuffix(c.Path, suffix) {
			out = append(out, c)
		}
	}
	return out
}

// Consent plays the user approving a consent URL: it issues a code bound to
// the URL's nonce and PKCE challenge and returns the redirect back to the
// application's callback.
func (p *Platform) Consent(consentURL string) (*url.URL, error) {
	u, err := url.Parse(consentURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if q.Get("client_id") != ClientID {
		return nil, fmt.Errorf("unexpected client_id %q", q.Get("client_id"))
	}
	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.counter++
	code := fmt.Sprintf("code-%d", p.counter)
	p.codes[code] = grant{nonce: q.Get("nonce"), challenge: q.Get("code_challenge")}
	p.mu.Unlock()

	rq := redirect.Query()
	rq.Set("code", code)
	rq.Set("state", q.Get("state"))
	redirect.RawQuery = rq.Encode()
	return redirect, nil
}

// ProfitAndLossReport builds a minimal P&L in the platform's row layout.
func ProfitAndLossReport(orgName, netProfit string) accounting.Report {
	return accounting.Report{
		ReportID:     "ProfitAndLoss",
		ReportName:   "Profit and Loss",
		ReportType:   "ProfitAndLoss",
		ReportTitles: []string{"Profit and Loss", orgName, "1 January 2022 to 31 December 2022"},
		Rows: []accounting.Row{
			{RowType: "Header", Cells: []accounting.Cell{{Value: ""}, {Value: "31 Dec 22"}}},
			{RowType: "Section", Title: "Income", Rows: []accounting.Row{
				{RowType: "Row", Cells: []accounting.Cell{{Value: "Sales"}, {Value: "1000.00"}}},
				{RowType: "SummaryRow", Cells: []accounting.Cell{{Value: "Total Income"}, {Value: "1000.00"}}},
			}},
			{RowType: "Section", Rows: []accounting.Row{
				{RowType: "Row", Cells: []accounting.Cell{{Value: "Net Profit"}, {Value: netProfit}}},
			}},
		},
	}
}

func (p *Platform) discovery(w http.ResponseWriter, r *http.Request) {
	base := p.Server.URL
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                base,
		"authorization_endpoint":                base + PathAuthorize,
		"token_endpoint":                        base + PathToken,
		"jwks_uri":                              base + PathJWKS,
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
		"scopes_supported":                      []string{"openid", "profile", "email", "offline_access"},
	})
}

func (p *Platform) jwks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.key.JWKS())
}

func (p *Platform) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	clientID, secret, ok := r.BasicAuth()
	if !ok {
		clientID, secret = r.PostFormValue("client_id"), r.PostFormValue("client_secret")
	}
	if clientID != ClientID || secret != ClientSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		return
	}

	p.mu.Lock()
	stall := p.tokenStall
	p.mu.Unlock()
	if stall > 0 {
		select {
		case <-time.After(stall):
		case <-r.Context().Done():
			return
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tokenFailure != 0 {
		writeJSON(w, p.tokenFailure, map[string]string{"error": "server_error"})
		return
	}

	var nonce string
	switch r.PostFormValue("grant_type") {
	case "authorization_code":
		g, ok := p.codes[r.PostFormValue("code")]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		delete(p.codes, r.PostFormValue("code"))
		if g.challenge != "" && s256(r.PostFormValue("code_verifier")) != g.challenge {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "pkce"})
			return
		}
		nonce = g.nonce
	case "refresh_token":
		rt := r.PostFormValue("refresh_token")
		if p.denyRefresh || !p.refreshTokens[rt] {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		delete(p.refreshTokens, rt)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	now := time.Now()
	p.counter++
	access, err := p.sign(jwt.MapClaims{
		"iss":       p.Server.URL,
		"sub":       "user-1",
		"client_id": ClientID,
		"scope":     []string{"openid", "accounting.reports.read"},
		"iat":       now.Unix(),
		"exp":       now.Add(p.accessTTL).Unix(),
		"jti":       fmt.Sprintf("at-%d", p.counter),
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}
	idToken, err := p.sign(jwt.MapClaims{
		"iss":   p.Server.URL,
		"sub":   "user-1",
		"aud":   ClientID,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"nonce": nonce,
		"email": "jane@example.com",
		"name":  "Jane Doe",
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server_error"})
		return
	}
	refresh := fmt.Sprintf("refresh-%d", p.counter)
	p.accessTokens[access] = true
	p.refreshTokens[refresh] = true

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"id_token":      idToken,
		"token_type":    "Bearer",
		"expires_in":    int(p.accessTTL.Seconds()),
	})
}

func (p *Platform) sign(claims jwt.MapClaims) (string, error) {
	return p.key.Sign(claims)
}

type apiHandler func(w http.ResponseWriter, r *http.Request, tenantID string)

func (p *Platform) api(next apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		tenantID := r.Header.Get("xero-tenant-id")

		p.mu.Lock()
		p.calls = append(p.calls, Call{Path: r.URL.Path, TenantID: tenantID, Query: r.URL.Query()})
		authorised := p.accessTokens[bearer]
		status := p.failures[tenantID]
		p.mu.Unlock()

		if !authorised {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"Title": "Unauthorized"})
			return
		}
		if status != 0 {
			writeJSON(w, status, map[string]string{"Title": "Failure", "Detail": "injected"})
			return
		}
		next(w, r, tenantID)
	}
}

func (p *Platform) connections(w http.ResponseWriter, _ *http.Request, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]map[string]string, 0, len(p.tenants))
	for _, t := range p.tenants {
		out = append(out, map[string]string{"id": t.ConnectionID, "tenantId": t.ID, "tenantName": t.Name, "tenantType": t.Type})
	}
	writeJSON(w, http.StatusOK, out)
}

func (p *Platform) organisation(w http.ResponseWriter, _ *http.Request, tenantID string) {
	p.mu.Lock()
	org, ok := p.organisations[tenantID]
	p.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"Title": "Forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Organisations": []accounting.Organisation{org}})
}

func (p *Platform) profitAndLoss(w http.ResponseWriter, _ *http.Request, tenantID string) {
	p.mu.Lock()
	reports, ok := p.profitLoss[tenantID]
	p.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"Title": "Forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Reports": reports})
}

func (p *Platform) balanceSheet(w http.ResponseWriter, _ *http.Request, tenantID string) {
	p.mu.Lock()
	reports, ok := p.balanceSheets[tenantID]
	p.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusForbidden, map[string]string{"Title": "Forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"Reports": reports})
}

func (p *Platform) invoiceList(w http.ResponseWriter, _ *http.Request, tenantID string) {
	p.mu.Lock()
	invoices := p.invoices[tenantID]
	p.mu.Unlock()
	if invoices == nil {
		invoices = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"Invoices": invoices})
}

func s256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
