package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inference-sim/warehouse-sim/sim/metrics"
)

// Metrics exports run outcomes in Prometheus format.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal     *prometheus.CounterVec
	LastRunMetric *prometheus.GaugeVec
}

// NewMetrics builds the collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse_sim",
			Name:      "runs_total",
			Help:      "Simulation runs by outcome",
		}, []string{"status"}),
		LastRunMetric: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "warehouse_sim",
			Name:      "last_run_metric",
			Help:      "Result metrics of the most recently completed run",
		}, []string{"metric"}),
	}
	registry.MustRegister(m.RunsTotal, m.LastRunMetric)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeCompleted(r metrics.Results) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(StateCompleted)).Inc()
	for name, v := range r.Map() {
		if v == nil {
			m.LastRunMetric.DeleteLabelValues(name)
			continue
		}
		m.LastRunMetric.WithLabelValues(name).Set(*v)
	}
}

func (m *Metrics) observeFailed() {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(StateFailed)).Inc()
}

func (m *Metrics) observeRejected() {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues("rejected").Inc()
}
