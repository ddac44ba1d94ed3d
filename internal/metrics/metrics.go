// Package metrics instruments the dispatcher with Prometheus collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/recipebox/internal/dispatch"
)

const namespace = "recipebox"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Dispatch records dispatcher lifecycle callbacks. It implements
// dispatch.Observer.
type Dispatch struct {
	total   *prometheus.CounterVec
	busy    *prometheus.CounterVec
	pending prometheus.Gauge
	seconds *prometheus.HistogramVec
}

var _ dispatch.Observer = (*Dispatch)(nil)

// NewDispatch creates the collectors and registers them with reg.
func NewDispatch(reg prometheus.Registerer) (*Dispatch, error) {
	m := &Dispatch{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Completed mutations by action and outcome.",
		}, []string{"action", "outcome"}),
		busy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "busy_total",
			Help:      "Mutations rejected because another was pending.",
		}, []string{"action"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "pending",
			Help:      "1 while a mutation is in flight.",
		}),
		seconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "seconds",
			Help:      "Time spent in the persistence gateway per mutation.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"action"}),
	}

	for _, c := range []prometheus.Collector{m.total, m.busy, m.pending, m.seconds} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register dispatch metrics: %w", err)
		}
	}
	return m, nil
}

// DispatchStarted implements dispatch.Observer.
func (m *Dispatch) DispatchStarted(dispatch.Kind) {
	m.pending.Set(1)
}

// DispatchFinished implements dispatch.Observer.
func (m *Dispatch) DispatchFinished(kind dispatch.Kind, err error, elapsed time.Duration) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.pending.Set(0)
	m.total.WithLabelValues(kind.String(), outcome).Inc()
	m.seconds.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// DispatchRejected implements dispatch.Observer.
func (m *Dispatch) DispatchRejected(kind dispatch.Kind) {
	m.busy.WithLabelValues(kind.String()).Inc()
}
