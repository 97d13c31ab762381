package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds platform-level Prometheus metrics shared by middleware.
// Domain modules register their own metrics structs alongside their services.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	RequestTotal   *prometheus.CounterVec
	PassesClaimed  prometheus.Counter
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cartera_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cartera_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		PassesClaimed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cartera_passes_claimed_total",
			Help: "Total wallet passes successfully claimed",
		}),
	}
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, method).Observe(seconds)
	m.RequestTotal.WithLabelValues(route, method, status).Inc()
}

// IncrementPassesClaimed increments the claimed pass counter by 1.
func (m *Metrics) IncrementPassesClaimed() {
	if m == nil {
		return
	}
	m.PassesClaimed.Inc()
}
