package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/internal/obs"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

// sessionCookieName carries the opaque session id; everything else stays
// server-side.
const sessionCookieName = "dashboard_session"

// sessionHandler is a handler that runs with the caller's loaded session.
// Any returned error is handled by failClosed.
type sessionHandler func(w http.ResponseWriter, r *http.Request, state *sessions.State) error

// WithSession loads the session named by the cookie and hands it to h.
// A missing cookie or unknown session fails closed like any other error.
func (s *Server) WithSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			s.failClosed(w, r, errors.Wrapf(errors.ErrSessionNotFound, "no session cookie"))
			return
		}
		state, err := s.sessions.Get(r.Context(), cookie.Value)
		if err != nil {
			s.failClosed(w, r, err)
			return
		}
		if err := h(w, r, state); err != nil {
			s.failClosed(w, r, err)
		}
	}
}

// failClosed sends the browser back to the start of authentication. The
// error kind only decides the log line and metric label.
func (s *Server) failClosed(w http.ResponseWriter, r *http.Request, err error) {
	kind := kindLabel(err)
	log.Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("kind", kind).
		Str("cause", errors.CauseOf(err)).
		Err(err).
		Msg("request failed, redirecting to sign in")
	obs.CountRedirect(kind)
	redirectSuccess(w, r, RouteIndex)
}

func kindLabel(err error) string {
	switch {
	case errors.Is(err, errors.ErrAuthExchange):
		return "auth_exchange"
	case errors.Is(err, errors.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, errors.ErrUpstreamFetch):
		return "upstream_fetch"
	case errors.Is(err, errors.ErrPersistence):
		return "persistence"
	case errors.Is(err, errors.ErrSessionNotFound):
		return "no_session"
	case errors.Is(err, errors.ErrUnknownTenant):
		return "unknown_tenant"
	case errors.Is(err, errors.ErrNotFound):
		return "not_found"
	}
	return "unknown"
}

// accessToken returns a usable access token for the session, persisting the
// new token set when a refresh happened.
func (s *Server) accessToken(ctx context.Context, state *sessions.State) (string, error) {
	token, refreshed, err := s.auth.ReadTokenSet(ctx, state)
	if err != nil {
		return "", err
	}
	if refreshed {
		state.Token = token
		state.UpdatedAt = s.now()
		if err := s.sessions.Put(ctx, state.ID, state); err != nil {
			return "", err
		}
		log.Debug().Str("session", state.ID).Msg("access token refreshed")
	}
	return token.AccessToken, nil
}

func newSessionID() string {
	return uuid.NewString()
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookieSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Server) cookieSecure(r *http.Request) bool {
	return s.secureCookies || getScheme(r) == "https"
}

// redirectSuccess helper for htmx-aware redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
