package observability

import (
	"context"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by router lifecycle events.
type Metrics struct {
	stateEvents *prometheus.CounterVec
	transitions *prometheus.CounterVec
	enters      *prometheus.CounterVec
	duration    prometheus.Histogram
	inactive    prometheus.Gauge
}

// NewMetrics creates the collectors under namespace (e.g. "sticky").
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		stateEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_events_total",
				Help:      "Lifecycle events applied to state instances.",
			},
			[]string{"event", "state"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Applied transitions by outcome.",
			},
			[]string{"result"},
		),
		enters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "planned_enters_total",
				Help:      "Enter actions of applied plans by kind (enter, reactivate, updateParams).",
			},
			[]string{"action"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transition_duration_seconds",
				Help:      "Duration of applied transitions.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		inactive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inactive_states",
				Help:      "Parked sticky states after the last transition.",
			},
		),
	}
}

// Collectors returns every collector, for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.stateEvents, m.transitions, m.enters, m.duration, m.inactive}
}

// Register registers the collectors with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks updating the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	count := func(ctx context.Context, e *domain.StateEvent) {
		m.stateEvents.WithLabelValues(string(e.Type), e.State).Inc()
	}
	return domain.LifecycleHooks{
		OnEnter:   count,
		OnPark:    count,
		OnResume:  count,
		OnDiscard: count,
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Type != domain.EventTransitionEnd {
				return
			}
			result := "ok"
			if e.Err != nil {
				result = "error"
			}
			m.transitions.WithLabelValues(result).Inc()
			m.duration.Observe(e.Duration.Seconds())

			// A plan-less end is an aborted transition: nothing moved.
			if e.Plan == nil {
				return
			}
			for _, a := range e.Plan.Enter {
				m.enters.WithLabelValues(string(a)).Inc()
			}
			m.inactive.Set(float64(len(e.Plan.Inactive)))
		},
	}
}
