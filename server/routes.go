package server

import (
	"net/http"

	"github.com/jrsteele09/go-accounts-dashboard/internal/obs"
	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.BeginAuthHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteConnect, ChainMiddleware(s.BeginAuthHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteReconnect, ChainMiddleware(s.ReconnectHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// DASHBOARD
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.WithSession(s.DashboardHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteActiveTenant, ChainMiddleware(s.WithSession(s.SwitchTenantHandler()), s.HTMLMiddleWare()...))

	// REPORTS
	s.RegisterRouteHandler("GET "+RouteProfitLoss, ChainMiddleware(s.WithSession(s.NetProfitHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteDateRangeReport, ChainMiddleware(s.WithSession(s.YearToDateHandler("Year Profit and Loss")), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteYearToDatePnL, ChainMiddleware(s.WithSession(s.YearToDateHandler("Profit and Loss - Year to Date")), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteMonthToDatePnL, ChainMiddleware(s.WithSession(s.MonthToDateHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteDateRangeSearch, ChainMiddleware(s.WithSession(s.DateRangeSearchHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteCompareSixMonths, ChainMiddleware(s.WithSession(s.CompareMonthsHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteBalanceSheet, ChainMiddleware(s.WithSession(s.BalanceSheetHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteRecentSales, ChainMiddleware(s.WithSession(s.RecentSalesHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteRecentBills, ChainMiddleware(s.WithSession(s.RecentBillsHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteExportPnLWorkbook, ChainMiddleware(s.WithSession(s.ExportPnLHandler()), s.HTMLMiddleWare()...))

	// GROUPS
	s.RegisterRouteHandler("GET "+RouteAddGroup, ChainMiddleware(s.WithSession(s.AddGroupHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCreateGroup, ChainMiddleware(s.WithSession(s.CreateGroupHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteGroups, ChainMiddleware(s.WithSession(s.ListGroupsHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteGroupPnL, ChainMiddleware(s.WithSession(s.GroupReportHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteGroupsYearPnL, ChainMiddleware(s.WithSession(s.GroupsYearToDateHandler()), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteGroupsMonthPnL, ChainMiddleware(s.WithSession(s.GroupsMonthToDateHandler()), s.HTMLMiddleWare()...))

	// OPERATIONS
	s.RegisterRouteHandler("GET "+RouteMetrics, obs.Handler())

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := "css/" + r.PathValue("file")
		err := StreamFile(w, r, filePath)
		if err != nil {
			log.Warn().Str("method", r.Method).Str("path", filePath).Err(err).Msg("static file not served")
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}
