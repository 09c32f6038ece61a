package config

import (
	"strings"
	"time"
)

const (
	clientIDVar        = "CLIENT_ID"
	clientSecretVar    = "CLIENT_SECRET"
	redirectURLVar     = "REDIRECT_URL"
	scopesVar          = "SCOPES"
	issuerURLVar       = "ISSUER_URL"
	apiBaseURLVar      = "API_BASE_URL"
	upstreamTimeoutVar = "UPSTREAM_TIMEOUT"
)

const defaultScopes = "openid profile email offline_access accounting.transactions accounting.reports.read accounting.settings"

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetIssuerURL() string
	GetAPIBaseURL() string
	GetUpstreamTimeout() time.Duration
	GetAuthFlowTimeout() time.Duration
}

type OAuth struct {
	src source
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetClientID() string {
	return o.src.get(clientIDVar, "")
}

func (o OAuth) GetClientSecret() string {
	return o.src.get(clientSecretVar, "")
}

func (o OAuth) GetRedirectURL() string {
	return o.src.get(redirectURLVar, "")
}

func (o OAuth) GetScopes() []string {
	return strings.Fields(o.src.get(scopesVar, defaultScopes))
}

func (o OAuth) GetIssuerURL() string {
	return o.src.get(issuerURLVar, "https://identity.xero.com")
}

func (o OAuth) GetAPIBaseURL() string {
	return o.src.get(apiBaseURLVar, "https://api.xero.com")
}

// GetUpstreamTimeout bounds every single remote call (token exchange, report fetch).
func (o OAuth) GetUpstreamTimeout() time.Duration {
	return parseDuration(o.src.get(upstreamTimeoutVar, ""), 15*time.Second)
}

// GetAuthFlowTimeout is how long a pending consent (state, nonce, verifier) stays usable.
func (o OAuth) GetAuthFlowTimeout() time.Duration {
	return 15 * time.Minute
}
