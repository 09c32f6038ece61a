package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/rs/zerolog/log"
)

// BeginAuthHandler sends the browser to the platform's consent page. If the
// consent URL cannot be built it goes to /reconnect rather than back to /,
// which would loop.
func (s *Server) BeginAuthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		consentURL, err := s.auth.BuildConsentURL(r.Context(), RouteDashboard)
		if err != nil {
			log.Error().Err(err).Msg("could not start authorization")
			redirectSuccess(w, r, RouteReconnect)
			return
		}
		http.Redirect(w, r, consentURL, http.StatusFound)
	}
}

// CallbackHandler completes the authorization code flow and starts a fresh
// session for the signed-in user.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cb, err := s.auth.ExchangeCode(ctx, r.URL)
		if err != nil {
			s.failClosed(w, r, err)
			return
		}
		list, err := s.auth.ListTenants(ctx, cb.Token)
		if err != nil {
			s.failClosed(w, r, err)
			return
		}

		// A new sign-in never inherits an earlier session.
		if old, err := r.Cookie(sessionCookieName); err == nil && old.Value != "" {
			if err := s.sessions.Clear(ctx, old.Value); err != nil {
				log.Warn().Err(err).Msg("could not clear previous session")
			}
		}

		now := s.now()
		state := &sessions.State{
			ID:                newSessionID(),
			IDTokenClaims:     cb.IDTokenClaims,
			AccessTokenClaims: cb.AccessTokenClaims,
			Token:             cb.Token,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		state.SetTenants(list)
		if err := s.sessions.Put(ctx, state.ID, state); err != nil {
			s.failClosed(w, r, err)
			return
		}
		s.setSessionCookie(w, r, state.ID)

		log.Info().
			Str("session", state.ID).
			Int("tenants", len(list)).
			Msg("signed in")
		redirectSuccess(w, r, localReturnURL(cb.ReturnURL))
	}
}

// localReturnURL only allows paths on this host.
func localReturnURL(returnURL string) string {
	if !strings.HasPrefix(returnURL, "/") || strings.HasPrefix(returnURL, "//") || strings.HasPrefix(returnURL, "/\\") {
		return RouteDashboard
	}
	return returnURL
}

func (s *Server) ReconnectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, pageReconnect, struct{ Title string }{Title: "Reconnect"})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if err := s.sessions.Clear(r.Context(), cookie.Value); err != nil {
				log.Warn().Err(err).Msg("could not clear session on logout")
			}
		}
		s.clearSessionCookie(w, r)
		redirectSuccess(w, r, RouteIndex)
	}
}
