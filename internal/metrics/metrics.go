// Package metrics holds the Prometheus collectors for the lead engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Lead metrics
	LeadOperations     *prometheus.CounterVec
	LeadClaimConflicts prometheus.Counter
	LeadDistributions  *prometheus.CounterVec
	PoolReleasesQueued prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on reg; Handler serves the same registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LeadOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_lifecycle_operations_total",
				Help: "Lead lifecycle operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		LeadClaimConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_claim_conflicts_total",
			Help: "Pool claims rejected because the lead was no longer claimable",
		}),
		LeadDistributions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lead_distribution_total",
				Help: "Round-robin distribution attempts by outcome",
			},
			[]string{"outcome"},
		),
		PoolReleasesQueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_pool_releases_enqueued_total",
			Help: "Stale leads enqueued for release to the pool",
		}),
		gatherer: reg,
	}
}

// ObserveOperation counts one lifecycle operation.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.LeadOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveClaimConflict counts a lost claim race.
func (m *Metrics) ObserveClaimConflict() {
	m.LeadClaimConflicts.Inc()
}

// ObserveDistribution counts one distribution outcome.
func (m *Metrics) ObserveDistribution(outcome string) {
	m.LeadDistributions.WithLabelValues(outcome).Inc()
}

// ObservePoolReleaseQueued counts a release task handed to the queue.
func (m *Metrics) ObservePoolReleaseQueued() {
	m.PoolReleasesQueued.Inc()
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
