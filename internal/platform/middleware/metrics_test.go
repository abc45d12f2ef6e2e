package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := echo.New()

	serve := func(h echo.HandlerFunc) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/study/NCT0001", nil), httptest.NewRecorder())
		c.SetPath("/study/:nct_id")
		_ = m.Middleware()(h)(c)
	}
	serve(okHandler)
	serve(okHandler)
	serve(func(echo.Context) error { return echo.NewHTTPError(http.StatusBadRequest, "bad") })
	serve(func(echo.Context) error { return errors.New("boom") })

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/study/:nct_id", "GET", "200")); got != 2 {
		t.Errorf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/study/:nct_id", "GET", "400")); got != 1 {
		t.Errorf("expected 1 bad request, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("/study/:nct_id", "GET", "500")); got != 1 {
		t.Errorf("expected 1 server error, got %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Errorf("expected one latency series, got %d", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("expected no requests in flight, got %v", got)
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	// Registering twice on different registries must not panic.
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
