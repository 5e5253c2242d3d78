// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every collector of this package is registered in.
var Registry = prometheus.NewRegistry()

var (
	// ApplicationsSubmitted counts created applications by channel (member, jobmitra)
	ApplicationsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobcard",
		Name:      "applications_submitted_total",
		Help:      "Job applications created.",
	}, []string{"channel"})

	// StatusTransitions counts application status changes by target status
	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobcard",
		Name:      "application_status_transitions_total",
		Help:      "Application status transitions that changed the status.",
	}, []string{"status"})

	// DocumentStatusUpdates counts verification decisions by status
	DocumentStatusUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobcard",
		Name:      "document_status_updates_total",
		Help:      "Per-document verification status updates.",
	}, []string{"status"})

	// Notifications counts dispatched notifications by kind and outcome
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobcard",
		Name:      "notifications_total",
		Help:      "Notifications by kind and outcome (delivered, failed, dropped).",
	}, []string{"kind", "outcome"})

	// IdentityLookups counts directory lookups by kind and outcome
	IdentityLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jobcard",
		Name:      "identity_lookups_total",
		Help:      "Identity directory lookups by kind and outcome.",
	}, []string{"kind", "outcome"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jobcard",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ApplicationsSubmitted,
		StatusTransitions,
		DocumentStatusUpdates,
		Notifications,
		IdentityLookups,
		requestDuration,
	)
}

// Middleware records request latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
