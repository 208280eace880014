// Package metrics exposes Prometheus collectors for MCP tool calls and
// worldbook loads.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "personamcp"

	resultOK    = "ok"
	resultError = "error"
)

// Metrics owns a private registry so several servers (and tests) can run in
// one process. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	loads        *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		toolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of MCP tool calls",
			},
			[]string{"tool", "result"},
		),
		toolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "MCP tool call duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"tool"},
		),
		loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worldbook_loads_total",
				Help:      "Total number of worldbook source reads",
			},
			[]string{"source", "result"},
		),
	}
}

// ObserveToolCall records one tool call that started at start.
func (m *Metrics) ObserveToolCall(tool string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, result(err)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// ObserveLoad records one worldbook read. Its signature matches
// worldbook.LoadObserver.
func (m *Metrics) ObserveLoad(src string, err error) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(src, result(err)).Inc()
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

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
