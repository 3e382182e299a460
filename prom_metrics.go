package barsched

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "barsched"

// PromMetrics exports server activity as Prometheus metrics.
type PromMetrics struct {
	submitted prometheus.Counter
	completed prometheus.Counter
	preempted prometheus.Counter
	idle      prometheus.Counter
	queued    prometheus.Gauge
}

// NewPromMetrics creates the collectors labelled with the run's policy
// and registers them on reg.
func NewPromMetrics(reg prometheus.Registerer, policy PolicyKind) (*PromMetrics, error) {
	labels := prometheus.Labels{"policy": policy.String()}
	m := &PromMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "orders_submitted_total",
			Help:        "Orders submitted to the server.",
			ConstLabels: labels,
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "orders_completed_total",
			Help:        "Orders fully prepared.",
			ConstLabels: labels,
		}),
		preempted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "preemptions_total",
			Help:        "Round robin slices that ended before the order was finished.",
			ConstLabels: labels,
		}),
		idle: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "idle_seconds_total",
			Help:        "Time the server spent waiting for orders.",
			ConstLabels: labels,
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "orders_queued",
			Help:        "Orders waiting to be served.",
			ConstLabels: labels,
		}),
	}
	for _, c := range []prometheus.Collector{m.submitted, m.completed, m.preempted, m.idle, m.queued} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PromMetrics) IncSubmitted() { m.submitted.Inc() }
func (m *PromMetrics) IncCompleted() { m.completed.Inc() }
func (m *PromMetrics) IncPreempted() { m.preempted.Inc() }
func (m *PromMetrics) AddIdle(d time.Duration) {
	if d > 0 {
		m.idle.Add(d.Seconds())
	}
}
func (m *PromMetrics) SetQueued(n int) { m.queued.Set(float64(n)) }
