package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/till/internal/metrics"
)

func TestCollectorCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.LoginAttempt("success")
	c.LoginAttempt("invalid_credentials")
	c.LoginAttempt("invalid_credentials")
	c.AuthRejected("TokenExpired")
	c.AuthzDenied("self_action")
	c.PermissionCacheResult("hit")
	c.SetBuildInfo("1.2.3")

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() != nil {
				values[mf.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(3), values["till_auth_logins_total"])
	require.Equal(t, float64(1), values["till_auth_rejections_total"])
	require.Equal(t, float64(1), values["till_authz_denials_total"])
	require.Equal(t, float64(1), values["till_permission_cache_total"])
}

func TestInstrumentAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	h := c.Instrument(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/7", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	families, err := reg.Gather()
	require.NoError(t, err)
	series := 0
	for _, mf := range families {
		if mf.GetName() == "till_http_requests_total" {
			series = len(mf.GetMetric())
		}
	}
	require.Equal(t, 2, series)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `till_http_requests_total{route="GET /products/{id}",status="403"} 1`)
	require.Contains(t, string(body), `route="unmatched",status="404"`)
}
