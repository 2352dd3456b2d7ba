package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetricsRouter(t *testing.T) (*gin.Engine, *HTTPMetrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWith(reg, reg, "payaid")
	require.NoError(t, err)

	router := gin.New()
	router.Use(m.Middleware("/metrics"))
	router.GET("/metrics", m.Handler())
	router.GET("/api/v1/crm/contacts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router, m
}

func TestHTTPMetrics(t *testing.T) {
	t.Run("labels requests by route pattern", func(t *testing.T) {
		router, m := newMetricsRouter(t)

		doRequest(router, http.MethodGet, "/api/v1/crm/contacts/1", nil)
		doRequest(router, http.MethodGet, "/api/v1/crm/contacts/2", nil)
		doRequest(router, http.MethodGet, "/boom", nil)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/crm/contacts/:id", "200")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/boom", "500")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	})

	t.Run("unknown paths share one label", func(t *testing.T) {
		router, m := newMetricsRouter(t)

		doRequest(router, http.MethodGet, "/nope/1", nil)
		doRequest(router, http.MethodGet, "/nope/2", nil)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", unmatchedRoute, "404")))
	})

	t.Run("scrape endpoint exposes the counters but is not counted", func(t *testing.T) {
		router, m := newMetricsRouter(t)
		doRequest(router, http.MethodGet, "/api/v1/crm/contacts/1", nil)

		w := doRequest(router, http.MethodGet, "/metrics", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "payaid_http_requests_total")
		assert.Contains(t, w.Body.String(), "payaid_http_request_duration_seconds")
		assert.Equal(t, 0.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/metrics", "200")))
	})

	t.Run("registering twice on one registry fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		_, err := NewHTTPMetricsWith(reg, reg, "payaid")
		require.NoError(t, err)
		_, err = NewHTTPMetricsWith(reg, reg, "payaid")
		assert.Error(t, err)
	})
}
