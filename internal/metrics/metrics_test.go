package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ApplicationsSubmitted.WithLabelValues("member").Inc()

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `jobcard_http_request_duration_seconds_count{code="204",method="GET",route="/ping"} 1`)
	assert.Contains(t, body, `jobcard_applications_submitted_total{channel="member"}`)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(Notifications.WithLabelValues("status_changed", "dropped"))
	Notifications.WithLabelValues("status_changed", "dropped").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Notifications.WithLabelValues("status_changed", "dropped")))
}
