package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-accounts-dashboard/accounting"
	"github.com/jrsteele09/go-accounts-dashboard/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestLocalReturnURL(t *testing.T) {
	cases := map[string]string{
		"":                         RouteDashboard,
		"/groups":                  "/groups",
		"//evil.example.com":       RouteDashboard,
		"/\\evil.example.com":      RouteDashboard,
		"https://evil.example.com": RouteDashboard,
	}
	for in, want := range cases {
		require.Equal(t, want, localReturnURL(in), in)
	}
}

func TestKindLabel(t *testing.T) {
	require.Equal(t, "auth_exchange", kindLabel(errors.E(errors.ErrAuthExchange, "op", "nonce_mismatch", nil)))
	require.Equal(t, "token_expired", kindLabel(fmt.Errorf("wrapped: %w", errors.E(errors.ErrTokenExpired, "op", "refresh", nil))))
	require.Equal(t, "not_found", kindLabel(errors.Wrapf(errors.ErrNotFound, "group %s", "g1")))
	require.Equal(t, "no_session", kindLabel(errors.ErrSessionNotFound))
	require.Equal(t, "unknown", kindLabel(fmt.Errorf("plain")))
}

func TestFlattenRowsKeepsSectionTitles(t *testing.T) {
	rows := []accounting.Row{
		{RowType: "Header", Cells: []accounting.Cell{{Value: ""}, {Value: "2022"}}},
		{RowType: "Section", Title: "Less Operating Expenses", Rows: []accounting.Row{
			{RowType: "Row", Cells: []accounting.Cell{{Value: "Rent"}, {Value: "1,200.50"}}},
			{RowType: "Row", Cells: []accounting.Cell{{Value: "Note"}, {Value: "see attached"}}},
			{RowType: "Row"},
		}},
	}

	lines := flattenRows(rows, "")
	require.Len(t, lines, 2)
	require.Equal(t, "Less Operating Expenses", lines[0].section)
	require.Equal(t, "Rent", lines[0].label)
	require.Equal(t, 1200.5, lines[0].amount)
	require.Equal(t, "see attached", lines[1].amount)
}

func TestIPRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }

	require.True(t, l.allow("10.0.0.1"))
	require.False(t, l.allow("10.0.0.1"))
	require.True(t, l.allow("10.0.0.2"))

	now = now.Add(5 * time.Minute)
	require.True(t, l.allow("10.0.0.3"))
	require.Len(t, l.buckets, 1)
}

func TestClientIPOnlyTrustsForwardedBehindProxy(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/connect", nil)
	r.RemoteAddr = "192.0.2.10:51234"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	require.Equal(t, "192.0.2.10", clientIP(r, false))
	require.Equal(t, "203.0.113.7", clientIP(r, true))

	r.Header.Del("X-Forwarded-For")
	require.Equal(t, "192.0.2.10", clientIP(r, true))

	r.RemoteAddr = "pipe"
	require.Equal(t, "pipe", clientIP(r, false))
}

func TestRecoverMiddlewareFailsClosed(t *testing.T) {
	s := &Server{}
	h := s.RecoverMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, RouteDashboard, nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, RouteIndex, rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, RouteDashboard, nil)
	req.Header.Set("HX-Request", "true")
	h(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, RouteIndex, rec.Header().Get("HX-Redirect"))
}
