package server

import (
	"net/http"

	"github.com/jrsteele09/go-accounts-dashboard/groups"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
	"github.com/jrsteele09/go-accounts-dashboard/tenants"
	"github.com/rs/zerolog/log"
)

type addGroupPage struct {
	Title   string
	Tenants []tenants.Tenant
	Groups  []*groups.Group
}

type groupsPage struct {
	Title       string
	Range       string
	Groups      []*groups.Group
	ShowReports bool
}

func (s *Server) AddGroupHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		list, err := s.groups.ListAll(r.Context())
		if err != nil {
			return err
		}
		render(w, http.StatusOK, pageAddGroup, addGroupPage{Title: "Add Group", Tenants: state.AllTenants, Groups: list})
		return nil
	}
}

// CreateGroupHandler stores the submitted group as given; tenants may repeat
// and are not checked against the session.
func (s *Server) CreateGroupHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, _ *sessions.State) error {
		if err := r.ParseForm(); err != nil {
			return errors.Wrapf(err, "parse group form")
		}
		g, err := s.groups.Create(r.Context(), r.PostFormValue("title"), r.PostFormValue("description"), r.PostForm["tenants"])
		if err != nil {
			return err
		}
		log.Debug().Str("group", g.ID).Msg("group created from form")
		redirectSuccess(w, r, RouteAddGroup)
		return nil
	}
}

func (s *Server) ListGroupsHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, _ *sessions.State) error {
		list, err := s.groups.ListAll(r.Context())
		if err != nil {
			return err
		}
		render(w, http.StatusOK, pageGroups, groupsPage{Title: "Groups", Groups: list})
		return nil
	}
}

// GroupReportHandler refreshes one group's P&L. from and to are optional and
// default to the current year.
func (s *Server) GroupReportHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		q := r.URL.Query()
		rng, err := reports.ParseRange(q.Get("from"), q.Get("to"), s.now())
		if err != nil {
			return err
		}
		token, err := s.accessToken(r.Context(), state)
		if err != nil {
			return err
		}
		g, err := s.groups.RefreshReport(r.Context(), token, r.PathValue("id"), state.AllTenants, rng.Params())
		if err != nil {
			return err
		}
		render(w, http.StatusOK, pageGroups, groupsPage{Title: g.Title, Range: rng.String(), Groups: []*groups.Group{g}, ShowReports: true})
		return nil
	}
}

func (s *Server) GroupsYearToDateHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		return s.renderAllGroups(w, r, state, "Groups - Year to Date", reports.YearToDate(s.now()))
	}
}

func (s *Server) GroupsMonthToDateHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		return s.renderAllGroups(w, r, state, "Groups - Month to Date", reports.MonthToDate(s.now()))
	}
}

func (s *Server) renderAllGroups(w http.ResponseWriter, r *http.Request, state *sessions.State, title string, rng reports.Range) error {
	token, err := s.accessToken(r.Context(), state)
	if err != nil {
		return err
	}
	list, err := s.groups.RefreshAll(r.Context(), token, state.AllTenants, rng.Params())
	if err != nil {
		return err
	}
	render(w, http.StatusOK, pageGroups, groupsPage{Title: title, Range: rng.String(), Groups: list, ShowReports: true})
	return nil
}
