package trap

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chameleon/pkg/synth"
)

// Metrics are the trap's prometheus collectors.
type Metrics struct {
	requests      *prometheus.CounterVec
	outcomes      *prometheus.CounterVec
	synthDuration prometheus.Histogram
	dropped       prometheus.Counter
}

// NewMetrics creates the trap collectors and registers them with reg.
// Collectors already registered by an earlier trap are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chameleon_trap_requests_total",
			Help: "Requests received by the trap, by HTTP method.",
		}, []string{"method"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chameleon_synth_outcomes_total",
			Help: "Synthesized responses, by outcome.",
		}, []string{"outcome"}),
		synthDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chameleon_synth_duration_seconds",
			Help:    "Time spent producing a trap response.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chameleon_trap_dropped_logs_total",
			Help: "Attack logs dropped because the storage queue was full.",
		}),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.outcomes, err = register(reg, m.outcomes); err != nil {
		return nil, err
	}
	if m.synthDuration, err = register(reg, m.synthDuration); err != nil {
		return nil, err
	}
	if m.dropped, err = register(reg, m.dropped); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(method string, outcome synth.Outcome, elapsed time.Duration) {
	m.requests.WithLabelValues(method).Inc()
	m.outcomes.WithLabelValues(string(outcome)).Inc()
	m.synthDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) drop() {
	m.dropped.Inc()
}
