package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cellmon/backend/services/cellular-poller/internal/service"
)

var states = []service.State{
	service.StateDisconnected,
	service.StateConnecting,
	service.StatePolling,
	service.StateStopped,
}

// Metrics records poller and supervisor events on its own registry.
type Metrics struct {
	registry   *prometheus.Registry
	polls      prometheus.Counter
	failures   *prometheus.CounterVec
	reconnects prometheus.Counter
	latency    prometheus.Histogram
	state      *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellmon_polls_total",
			Help: "Poll cycles that stored a row.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cellmon_poll_failures_total",
			Help: "Sessions torn down, by failure kind.",
		}, []string{"kind"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cellmon_reconnects_total",
			Help: "Reconnect attempts after a failure.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cellmon_poll_duration_seconds",
			Help:    "Time from the first router command to the stored row.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cellmon_supervisor_state",
			Help: "1 for the current supervisor state.",
		}, []string{"state"}),
	}
	m.registry.MustRegister(m.polls, m.failures, m.reconnects, m.latency, m.state)
	m.StateChanged(service.StateDisconnected)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CycleCompleted counts a stored row and its cycle duration.
func (m *Metrics) CycleCompleted(elapsed time.Duration) {
	m.polls.Inc()
	m.latency.Observe(elapsed.Seconds())
}

// CycleFailed counts a torn down session by failure kind.
func (m *Metrics) CycleFailed(outcome service.Outcome) {
	m.failures.WithLabelValues(outcome.String()).Inc()
}

// Reconnecting counts a reconnect attempt.
func (m *Metrics) Reconnecting() {
	m.reconnects.Inc()
}

// StateChanged moves the state gauge to state.
func (m *Metrics) StateChanged(state service.State) {
	for _, s := range states {
		v := 0.0
		if s == state {
			v = 1
		}
		m.state.WithLabelValues(s.String()).Set(v)
	}
}

var _ service.Recorder = (*Metrics)(nil)
