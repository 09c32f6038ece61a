package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/config"
	"github.com/jrsteele09/go-accounts-dashboard/internal/obs"
	"github.com/jrsteele09/go-accounts-dashboard/oauth"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"github.com/rs/zerolog/log"
)

// Authenticator is the OAuth client side of the platform.
type Authenticator interface {
	BuildConsentURL(ctx context.Context, returnURL string) (string, error)
	ExchangeCode(ctx context.Context, callback *url.URL) (*oauth.Callback, error)
	ListTenants(ctx context.Context, token sessions.TokenSet) ([]tenants.Tenant, error)
	ReadTokenSet(ctx context.Context, s *sessions.State) (sessions.TokenSet, bool, error)
}

// AccountingAPI covers the single-tenant calls the handlers make directly.
type AccountingAPI interface {
	Organisation(ctx context.Context, accessToken, tenantID string) (accounting.Organisation, error)
	ProfitAndLoss(ctx context.Context, accessToken, tenantID string, p accounting.ProfitAndLossParams) ([]accounting.Report, error)
}

type ReportAggregator interface {
	FetchReports(ctx context.Context, accessToken string, list []tenants.Tenant, kind reports.Kind, p reports.Params) ([]reports.Result, error)
	FetchInvoices(ctx context.Context, accessToken string, list []tenants.Tenant) ([]accounting.Invoice, error)
}

type GroupService interface {
	Create(ctx context.Context, title, description string, tenantIDs []string) (*groups.Group, error)
	ListAll(ctx context.Context) ([]*groups.Group, error)
	RefreshReport(ctx context.Context, accessToken, id string, known []tenants.Tenant, p reports.Params) (*groups.Group, error)
	RefreshAll(ctx context.Context, accessToken string, known []tenants.Tenant, p reports.Params) ([]*groups.Group, error)
}

// Deps are the collaborators the HTTP surface drives.
type Deps struct {
	Sessions   sessions.Repo
	Auth       Authenticator
	Accounting AccountingAPI
	Reports    ReportAggregator
	Groups     GroupService
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.Handler
	routes   []string
	config   config.Config
	sessions sessions.Repo
	auth     Authenticator
	api      AccountingAPI
	reports  ReportAggregator
	groups   GroupService
	limiter  *ipRateLimiter
	now      func() time.Time

	trustProxy    bool
	secureCookies bool
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Sessions == nil || deps.Auth == nil || deps.Accounting == nil || deps.Reports == nil || deps.Groups == nil {
		return nil, fmt.Errorf("[Server New] missing dependency")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		sessions: deps.Sessions,
		auth:     deps.Auth,
		api:      deps.Accounting,
		reports:  deps.Reports,
		groups:   deps.Groups,
		now:      time.Now,

		trustProxy:    cfg.GetTrustProxyHeaders(),
		secureCookies: strings.HasPrefix(cfg.GetBaseURL(), "https://"),
	}
	if cfg.GetEnableRateLimiting() {
		perSecond, burst := cfg.GetRateLimit()
		s.limiter = newIPRateLimiter(perSecond, burst, 5*time.Minute)
	}

	obs.Init()
	s.initRoutes()
	s.logRoutes()
	s.handler = obs.Instrument(s.mux, routeLabel(s.mux))

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}

// routeLabel maps a request to its registered pattern so metric labels stay
// bounded for paths like /groups/{id}/pnl.
func routeLabel(mux *http.ServeMux) func(*http.Request) string {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		if pattern == "" {
			return "unmatched"
		}
		return pattern
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
