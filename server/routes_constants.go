package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteIndex     = "/"
	RouteConnect   = "/connect"
	RouteCallback  = "/callback"
	RouteReconnect = "/reconnect"
	RouteLogout    = "/logout"

	// Dashboard
	RouteDashboard    = "/dashboard"
	RouteActiveTenant = "/tenants/active"

	// Reports
	RouteProfitLoss        = "/profit-loss"
	RouteDateRangeReport   = "/date-range-report"
	RouteYearToDatePnL     = "/yeardate-pnl"
	RouteMonthToDatePnL    = "/monthdate-pnl"
	RouteDateRangeSearch   = "/dateRangeSearch"
	RouteCompareSixMonths  = "/compare-6months-pnl"
	RouteBalanceSheet      = "/balance-sheet"
	RouteRecentSales       = "/recent-sales"
	RouteRecentBills       = "/recent-bills"
	RouteExportPnLWorkbook = "/export/pnl.xlsx"

	// Groups
	RouteAddGroup       = "/add-group"
	RouteCreateGroup    = "/createGroup"
	RouteGroups         = "/groups"
	RouteGroupPnL       = "/groups/{id}/pnl"
	RouteGroupsYearPnL  = "/groups-pnl-y2d"
	RouteGroupsMonthPnL = "/groups-pnl-m2d"

	// Operations
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
