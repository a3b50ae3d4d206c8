package health

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes readiness and orchestration counters. A dedicated
// registry keeps tests isolated from the default global one.
type Metrics struct {
	Registry *prometheus.Registry

	adapterReady     *prometheus.GaugeVec
	transitionsTotal *prometheus.CounterVec
	decisionsTotal   *prometheus.CounterVec
}

// NewMetrics builds and registers the metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		adapterReady: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depctl_adapter_ready",
			Help: "Whether the adapter is operational (Ready or Degraded).",
		}, []string{"adapter"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depctl_adapter_transitions_total",
			Help: "Readiness state transitions per adapter.",
		}, []string{"adapter"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depctl_orchestration_decisions_total",
			Help: "Orchestration decisions by service and action.",
		}, []string{"service", "action"}),
	}
	m.Registry.MustRegister(m.adapterReady, m.transitionsTotal, m.decisionsTotal)
	return m
}

func (m *Metrics) setReady(adapter string, ready bool) {
	v := 0.0
	if ready {
		v = 1.0
	}
	m.adapterReady.WithLabelValues(adapter).Set(v)
}

func (m *Metrics) countTransition(adapter string) {
	m.transitionsTotal.WithLabelValues(adapter).Inc()
}

func (m *Metrics) countDecision(service, action string) {
	m.decisionsTotal.WithLabelValues(service, action).Inc()
}
