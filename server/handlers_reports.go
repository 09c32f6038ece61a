package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/jrsteele09/go-accounts-dashboard/reports"
	"github.com/jrsteele09/go-accounts-dashboard/sessions"
)

type reportsPage struct {
	Title   string
	Range   string
	Results []reports.Result
}

type recentPage struct {
	Title    string
	Invoices []accounting.Invoice
}

// renderProfitAndLoss fetches P&L for every tenant in the session.
func (s *Server) renderProfitAndLoss(w http.ResponseWriter, r *http.Request, state *sessions.State, title string, rng reports.Range, p reports.Params) error {
	token, err := s.accessToken(r.Context(), state)
	if err != nil {
		return err
	}
	results, err := s.reports.FetchReports(r.Context(), token, state.AllTenants, reports.ProfitAndLoss, p)
	if err != nil {
		return err
	}
	render(w, http.StatusOK, pageReports, reportsPage{Title: title, Range: rng.String(), Results: results})
	return nil
}

func (s *Server) YearToDateHandler(title string) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		rng := reports.YearToDate(s.now())
		return s.renderProfitAndLoss(w, r, state, title, rng, rng.Params())
	}
}

func (s *Server) MonthToDateHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		rng := reports.MonthToDate(s.now())
		return s.renderProfitAndLoss(w, r, state, "Profit and Loss - Month to Date", rng, rng.Params())
	}
}

// DateRangeSearchHandler reads startDate and endDate (YYYY-MM-DD) from the
// search form.
func (s *Server) DateRangeSearchHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		if err := r.ParseForm(); err != nil {
			return errors.Wrapf(err, "parse date range form")
		}
		rng, err := reports.ParseRange(r.PostFormValue("startDate"), r.PostFormValue("endDate"), s.now())
		if err != nil {
			return err
		}
		return s.renderProfitAndLoss(w, r, state, "Profit and Loss - Custom Range", rng, rng.Params())
	}
}

// CompareMonthsHandler asks for this month compared with the five before it.
func (s *Server) CompareMonthsHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		rng := reports.MonthToDate(s.now())
		p := rng.Params()
		p.Periods = 6
		p.Timeframe = "MONTH"
		p.StandardLayout = true
		return s.renderProfitAndLoss(w, r, state, "Profit and Loss - Last 6 Months", rng, p)
	}
}

// BalanceSheetHandler returns today's balance sheets for every tenant as JSON.
func (s *Server) BalanceSheetHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		token, err := s.accessToken(r.Context(), state)
		if err != nil {
			return err
		}
		results, err := s.reports.FetchReports(r.Context(), token, state.AllTenants, reports.BalanceSheet, reports.Params{Date: s.now()})
		if err != nil {
			return err
		}
		body, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("encode balance sheets: %w", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
		return nil
	}
}

func (s *Server) RecentSalesHandler() sessionHandler {
	return s.recentHandler("Recent Sales", reports.Sales)
}

func (s *Server) RecentBillsHandler() sessionHandler {
	return s.recentHandler("Recent Bills", reports.Bills)
}

func (s *Server) recentHandler(title string, pick func([]accounting.Invoice) []accounting.Invoice) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		token, err := s.accessToken(r.Context(), state)
		if err != nil {
			return err
		}
		invoices, err := s.reports.FetchInvoices(r.Context(), token, state.AllTenants)
		if err != nil {
			return err
		}
		render(w, http.StatusOK, pageRecent, recentPage{Title: title, Invoices: pick(invoices)})
		return nil
	}
}

// ExportPnLHandler downloads the year-to-date P&L of every tenant as a
// workbook.
func (s *Server) ExportPnLHandler() sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, state *sessions.State) error {
		token, err := s.accessToken(r.Context(), state)
		if err != nil {
			return err
		}
		rng := reports.YearToDate(s.now())
		results, err := s.reports.FetchReports(r.Context(), token, state.AllTenants, reports.ProfitAndLoss, rng.Params())
		if err != nil {
			return err
		}
		data, err := buildProfitAndLossWorkbook(results, rng)
		if err != nil {
			return err
		}
		filename := fmt.Sprintf("profit-and-loss-%d.xlsx", rng.From.Year())
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write(data)
		return nil
	}
}
