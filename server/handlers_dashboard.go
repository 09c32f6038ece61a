package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
)

type dashboardPage struct {
	Title        string
	UserName     string
	Organisation *accounting.Organisation
	Active       *tenants.Tenant
	Tenants      []tenants.Tenant
}

// DashboardHandler shows the active tenant's organisation. A session with no
// connected tenants gets a notice instead of a redirect.
func (s *Server) DashboardHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		page := dashboardPage{
			Title:   "Dashboard",
			Active:  state.ActiveTenant,
			Tenants: state.AllTenants,
		}
		if name, ok := state.IDTokenClaims["name"].(string); ok {
			page.UserName = name
		}
		if state.ActiveTenant == nil {
			render(w, http.StatusOK, pageDashboard, page)
			return nil
		}

		token, err := s.accessToken(r.Context(), state)
		if err != nil {
			return err
		}
		org, err := s.api.Organisation(r.Context(), token, state.ActiveTenant.ID)
		if err != nil {
			return err
		}
		page.Organisation = &org
		page.Title = org.Name
		render(w, http.StatusOK, pageDashboard, page)
		return nil
	}
}

// SwitchTenantHandler makes another of the session's tenants active.
func (s *Server) SwitchTenantHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		if err := r.ParseForm(); err != nil {
			return errors.Wrapf(err, "parse tenant form")
		}
		if err := state.SetActiveTenant(r.PostFormValue("tenantId")); err != nil {
			return err
		}
		state.UpdatedAt = s.now()
		if err := s.sessions.Put(r.Context(), state.ID, state); err != nil {
			return err
		}
		redirectSuccess(w, r, RouteDashboard)
		return nil
	}
}

// NetProfitHandler answers with one line of text for the active tenant's
// current year.
func (s *Server) NetProfitHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		const op = "server.NetProfit"
		if state.ActiveTenant == nil {
			redirectSuccess(w, r, RouteDashboard)
			return nil
		}
		token, err := s.accessToken(r.Context(), state)
		if err != nil {
			return err
		}
		rng := reports.YearToDate(s.now())
		list, err := s.api.ProfitAndLoss(r.Context(), token, state.ActiveTenant.ID, rng.Params().ProfitAndLossParams)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.E(errors.ErrUpstreamFetch, op, "empty", nil)
		}
		netProfit, err := list[0].NetProfit()
		if err != nil {
			return errors.E(errors.ErrUpstreamFetch, op, "net_profit", err)
		}
		name := list[0].OrganisationName()
		if name == "" {
			name = state.ActiveTenant.DisplayName()
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "Net Profit and Loss for %s is %s", name, netProfit.String())
		return nil
	}
}
