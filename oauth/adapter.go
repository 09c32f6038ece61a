// Package oauth is the dashboard's client side of the authorization-code flow
// against the accounting platform's identity provider.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-accounts-dashboard/internal/config"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/internal/obs"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"golang.org/x/oauth2"
)

// ConnectionLister returns the tenants an access token is authorised for.
type ConnectionLister interface {
	Connections(ctx context.Context, accessToken string) ([]tenants.Tenant, error)
}

// Callback is the outcome of a successful code exchange.
type Callback struct {
	Token             sessions.TokenSet
	IDTokenClaims     map[string]any
	AccessTokenClaims map[string]any
	ReturnURL         string
}

type Adapter struct {
	oauth2      *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	flows       FlowRepo
	connections ConnectionLister
	timeout     time.Duration
	httpClient  *http.Client
	now         func() time.Time
}

type Option func(*Adapter)

// WithHTTPClient sets the client used for discovery, JWKS and token calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// New discovers the issuer and prepares the client. It fails with
// ErrConfiguration when credentials are missing or discovery fails, which
// aborts startup.
func New(ctx context.Context, cfg config.OAuthConfig, connections ConnectionLister, flows FlowRepo, opts ...Option) (*Adapter, error) {
	const op = "oauth.New"

	var missing []string
	if cfg.GetClientID() == "" {
		missing = append(missing, "client_id")
	}
	if cfg.GetClientSecret() == "" {
		missing = append(missing, "client_secret")
	}
	if cfg.GetRedirectURL() == "" {
		missing = append(missing, "redirect_url")
	}
	if len(missing) > 0 {
		return nil, errors.E(errors.ErrConfiguration, op, "missing_credentials", errors.New(strings.Join(missing, ", ")))
	}

	a := &Adapter{
		flows:       flows,
		connections: connections,
		timeout:     cfg.GetUpstreamTimeout(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	dctx, cancel := a.callContext(ctx)
	defer cancel()
	provider, err := oidc.NewProvider(dctx, cfg.GetIssuerURL())
	if err != nil {
		return nil, errors.E(errors.ErrConfiguration, op, "discovery", err)
	}

	a.oauth2 = &oauth2.Config{
		ClientID:     cfg.GetClientID(),
		ClientSecret: cfg.GetClientSecret(),
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.GetRedirectURL(),
		Scopes:       cfg.GetScopes(),
	}
	a.verifier = provider.Verifier(&oidc.Config{
		ClientID: cfg.GetClientID(),
		Now:      a.now,
	})
	return a, nil
}

// BuildConsentURL starts a flow: it stores a fresh state, nonce and PKCE
// verifier and returns the provider URL the browser should be sent to.
func (a *Adapter) BuildConsentURL(ctx context.Context, returnURL string) (string, error) {
	state := generateRandomString(32)
	nonce := generateRandomString(32)
	verifier := oauth2.GenerateVerifier()

	err := a.flows.Upsert(state, &FlowState{
		Nonce:        nonce,
		CodeVerifier: verifier,
		ReturnURL:    returnURL,
		CreatedAt:    a.now(),
	})
	if err != nil {
		return "", errors.E(errors.ErrPersistence, "oauth.BuildConsentURL", "flow_store", err)
	}

	return a.oauth2.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	), nil
}

// ExchangeCode completes a flow from the provider's redirect. The pending
// flow is consumed whether or not the exchange succeeds.
func (a *Adapter) ExchangeCode(ctx context.Context, callback *url.URL) (*Callback, error) {
	const op = "oauth.ExchangeCode"
	q := callback.Query()

	if e := q.Get("error"); e != "" {
		return nil, errors.E(errors.ErrAuthExchange, op, "provider_error", errors.New(e+": "+q.Get("error_description")))
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		return nil, errors.E(errors.ErrAuthExchange, op, "missing_code", nil)
	}

	flow, err := a.flows.Take(state)
	if err != nil {
		return nil, errors.E(errors.ErrAuthExchange, op, "unknown_state", err)
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()

	start := time.Now()
	tok, err := a.oauth2.Exchange(cctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	obs.ObserveUpstream("token_exchange", start, &err)
	if err != nil {
		return nil, errors.E(errors.ErrAuthExchange, op, "exchange", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.E(errors.ErrAuthExchange, op, "missing_id_token", nil)
	}
	idToken, err := a.verifier.Verify(cctx, rawIDToken)
	if err != nil {
		return nil, errors.E(errors.ErrAuthExchange, op, "verify", err)
	}
	if idToken.Nonce != flow.Nonce {
		return nil, errors.E(errors.ErrAuthExchange, op, "nonce_mismatch", nil)
	}

	idClaims := map[string]any{}
	if err := idToken.Claims(&idClaims); err != nil {
		return nil, errors.E(errors.ErrAuthExchange, op, "verify", err)
	}
	accessClaims, err := decodeClaims(tok.AccessToken)
	if err != nil {
		return nil, errors.E(errors.ErrAuthExchange, op, "decode_access_token", err)
	}

	return &Callback{
		Token:             sessions.FromOAuth2(tok),
		IDTokenClaims:     idClaims,
		AccessTokenClaims: accessClaims,
		ReturnURL:         flow.ReturnURL,
	}, nil
}

// ListTenants returns the tenants the token set is authorised for, in the
// order the platform lists them.
func (a *Adapter) ListTenants(ctx context.Context, token sessions.TokenSet) ([]tenants.Tenant, error) {
	return a.connections.Connections(ctx, token.AccessToken)
}

// ReadTokenSet returns a usable token set for the session, refreshing it when
// the access token has expired. refreshed tells the caller to persist the
// session again.
func (a *Adapter) ReadTokenSet(ctx context.Context, s *sessions.State) (sessions.TokenSet, bool, error) {
	const op = "oauth.ReadTokenSet"
	current := s.Token
	if current.AccessToken == "" {
		return sessions.TokenSet{}, false, errors.E(errors.ErrTokenExpired, op, "no_token", nil)
	}
	if current.Expiry.IsZero() || a.now().Before(current.Expiry) {
		return current, false, nil
	}
	if current.RefreshToken == "" {
		return sessions.TokenSet{}, false, errors.E(errors.ErrTokenExpired, op, "expired", nil)
	}

	cctx, cancel := a.callContext(ctx)
	defer cancel()

	// Force a refresh; staleness was decided by a.now, not the oauth2 clock.
	stale := current.OAuth2()
	stale.Expiry = time.Unix(1, 0)

	start := time.Now()
	tok, err := a.oauth2.TokenSource(cctx, stale).Token()
	obs.ObserveUpstream("token_refresh", start, &err)
	if err != nil {
		return sessions.TokenSet{}, false, errors.E(errors.ErrTokenExpired, op, "refresh", err)
	}

	next := sessions.FromOAuth2(tok)
	if next.IDToken == "" {
		next.IDToken = current.IDToken
	}
	if next.RefreshToken == "" {
		next.RefreshToken = current.RefreshToken
	}
	return next, true, nil
}

func (a *Adapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.httpClient != nil {
		ctx = oidc.ClientContext(ctx, a.httpClient)
	}
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}

// decodeClaims reads a JWT's claims without verifying it. Access tokens are
// opaque to the dashboard; the claims are only kept for display and logging.
func decodeClaims(token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
