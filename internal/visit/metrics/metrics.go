package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the visit module.
type Metrics struct {
	VisitsRegistered prometheus.Counter
	VisitsRejected   prometheus.Counter
	WindowResets     prometheus.Counter
	RegisterDuration prometheus.Histogram
}

// New creates a new Metrics instance with all visit module metrics registered.
func New() *Metrics {
	return &Metrics{
		VisitsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cartera_visits_registered_total",
			Help: "Total number of visits registered",
		}),
		VisitsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cartera_visits_rejected_total",
			Help: "Total number of scans rejected before registration",
		}),
		WindowResets: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cartera_visit_window_resets_total",
			Help: "Total number of visits that reset an expired points window",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartera_visit_register_duration_seconds",
			Help:    "Duration of visit registration (scanner critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistered records a successful visit registration.
func (m *Metrics) IncrementRegistered() {
	m.VisitsRegistered.Inc()
}

// IncrementRejected records a scan rejected before any row was written.
func (m *Metrics) IncrementRejected() {
	m.VisitsRejected.Inc()
}

// IncrementWindowReset records a registration that restarted the window.
func (m *Metrics) IncrementWindowReset() {
	m.WindowResets.Inc()
}

// ObserveRegister records the duration of a registration attempt.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}
