// Package metrics exposes Prometheus collectors for the session core and
// the BFF. All methods are safe to call on a nil *Metrics, which records
// nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recruit"

// Metrics holds the registered collectors.
type Metrics struct {
	authCycles       *prometheus.CounterVec
	authCycleShared  prometheus.Counter
	refreshes        *prometheus.CounterVec
	fetchRetries     *prometheus.CounterVec
	guardDecisions   *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		authCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "cycles_total",
			Help:      "Ensure-valid-token cycles by outcome",
		}, []string{"outcome"}),

		authCycleShared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "cycle_joins_total",
			Help:      "Callers that joined an in-flight cycle instead of starting one",
		}),

		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "refreshes_total",
			Help:      "Access token refresh attempts by result",
		}, []string{"source", "result"}),

		fetchRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Retry-after-401 attempts of the authenticated fetch wrapper",
		}, []string{"result"}),

		guardDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Route guard decisions",
		}, []string{"decision"}),

		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Requests forwarded to the recruiting API",
		}, []string{"method", "status"}),

		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the recruiting API",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// AuthCycle records a settled coordinator cycle.
func (m *Metrics) AuthCycle(outcome string) {
	if m == nil {
		return
	}
	m.authCycles.WithLabelValues(outcome).Inc()
}

// AuthCycleJoined records a caller that reused an in-flight cycle.
func (m *Metrics) AuthCycleJoined() {
	if m == nil {
		return
	}
	m.authCycleShared.Inc()
}

// Refresh records a refresh attempt. source is "client" or "bff".
func (m *Metrics) Refresh(source, result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(source, result).Inc()
}

// FetchRetry records the outcome of a retry-after-401.
func (m *Metrics) FetchRetry(result string) {
	if m == nil {
		return
	}
	m.fetchRetries.WithLabelValues(result).Inc()
}

// GuardDecision records a route guard decision.
func (m *Metrics) GuardDecision(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

// UpstreamRequest records one call to the recruiting API. status 0 means
// the request never got a response.
func (m *Metrics) UpstreamRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.upstreamDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Handler serves the collectors registered on g.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
