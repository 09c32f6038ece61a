package obs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentRecordsStatus(t *testing.T) {
	Init()
	Init()

	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}), func(*http.Request) string { return "/dashboard" })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/dashboard", "303"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard?x=1", nil))

	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/dashboard", "303")))
	require.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
}

func TestObserveUpstreamOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(upstreamCallsTotal.WithLabelValues("invoices", "ok"))
	errBefore := testutil.ToFloat64(upstreamCallsTotal.WithLabelValues("invoices", "error"))

	var err error
	ObserveUpstream("invoices", time.Now(), &err)
	err = errors.New("boom")
	ObserveUpstream("invoices", time.Now(), &err)

	require.Equal(t, okBefore+1, testutil.ToFloat64(upstreamCallsTotal.WithLabelValues("invoices", "ok")))
	require.Equal(t, errBefore+1, testutil.ToFloat64(upstreamCallsTotal.WithLabelValues("invoices", "error")))
}
