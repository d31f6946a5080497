// Package metrics exposes Prometheus collectors for the console.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/schema"
)

const namespace = "benchdeck"

// Metrics owns a registry and implements core.Recorder. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	applications    prometheus.Gauge
	pollTicks       *prometheus.CounterVec
	dispatchTotal   *prometheus.CounterVec
	breakerChanges  *prometheus.CounterVec
	breakerState    prometheus.Gauge
	streamClients   prometheus.Gauge
}

var _ core.Recorder = (*Metrics)(nil)

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "refresh_total",
			Help:      "Store refreshes by result (applied, stale, error).",
		}, []string{"result"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of the gateway list call behind a refresh.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		applications: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "applications",
			Help:      "Applications in the last applied snapshot.",
		}),
		pollTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ticks_total",
			Help:      "Poller ticks by outcome (skipped, issued, joined).",
		}, []string{"outcome"}),
		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Dispatcher calls by action and result.",
		}, []string{"action", "result"}),
		breakerChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "breaker_state_changes_total",
			Help:      "Gateway circuit breaker transitions by new state.",
		}, []string{"state"}),
		breakerState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "breaker_state",
			Help:      "Gateway circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "stream_clients",
			Help:      "Connected event stream clients.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RefreshObserved implements core.Recorder.
func (m *Metrics) RefreshObserved(result core.RefreshResult, elapsed time.Duration, apps int) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(string(result)).Inc()
	m.refreshDuration.Observe(elapsed.Seconds())
	if result == core.RefreshApplied {
		m.applications.Set(float64(apps))
	}
}

// PollTick implements core.Recorder.
func (m *Metrics) PollTick(outcome core.PollOutcome) {
	if m == nil {
		return
	}
	m.pollTicks.WithLabelValues(string(outcome)).Inc()
}

// DispatchObserved implements core.Recorder.
func (m *Metrics) DispatchObserved(action schema.Action, result core.DispatchResult) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(string(action), string(result)).Inc()
}

// BreakerChanged records a gateway breaker transition.
func (m *Metrics) BreakerChanged(_, to string) {
	if m == nil {
		return
	}
	m.breakerChanges.WithLabelValues(to).Inc()
	switch to {
	case "closed":
		m.breakerState.Set(0)
	case "half-open":
		m.breakerState.Set(1)
	case "open":
		m.breakerState.Set(2)
	}
}

// StreamClients tracks connected event stream clients.
func (m *Metrics) StreamClients(delta int) {
	if m == nil {
		return
	}
	m.streamClients.Add(float64(delta))
}
