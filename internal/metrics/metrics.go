package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	BillingRuns    *prometheus.CounterVec
	BillsGenerated *prometheus.CounterVec
	LinePush       *prometheus.CounterVec
	SlipReviews    *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// New builds an unregistered set of collectors.
func New(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BillingRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_runs_total",
			Help:      "Monthly billing runs by result.",
		}, []string{"result"}),
		BillsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_generated_total",
			Help:      "Bills created by kind.",
		}, []string{"kind"}),
		LinePush: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "line_push_total",
			Help:      "LINE push messages by outcome.",
		}, []string{"status"}),
		SlipReviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_slip_reviews_total",
			Help:      "Payment slip decisions by outcome.",
		}, []string{"decision"}),
	}
}

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = New(namespace)
		prometheus.MustRegister(metricsInstance.collectors()...)
	})
	return metricsInstance
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HTTPRequests,
		m.HTTPDuration,
		m.BillingRuns,
		m.BillsGenerated,
		m.LinePush,
		m.SlipReviews,
	}
}

// The helpers below accept a nil receiver so callers never need to check.

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) BillingRun(result string) {
	if m == nil {
		return
	}
	m.BillingRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) BillGenerated(kind string) {
	if m == nil {
		return
	}
	m.BillsGenerated.WithLabelValues(kind).Inc()
}

func (m *Metrics) LinePushed(status string) {
	if m == nil {
		return
	}
	m.LinePush.WithLabelValues(status).Inc()
}

func (m *Metrics) SlipReviewed(decision string) {
	if m == nil {
		return
	}
	m.SlipReviews.WithLabelValues(decision).Inc()
}
