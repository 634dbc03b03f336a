// Package metrics records request, operation and resolver metrics from the
// event bus into a Prometheus registry.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/events"
)

// Metrics holds the refgraph collectors and the registry they are
// registered on.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	resolverDuration  *prometheus.HistogramVec
	resolverErrors    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refgraph_requests_total",
				Help: "Total number of request documents",
			},
			[]string{"source", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "refgraph_operation_duration_seconds",
				Help:    "Operation execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		operationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refgraph_operation_errors_total",
				Help: "Total number of errors reported in operation responses",
			},
			[]string{"type"},
		),
		resolverDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "refgraph_resolver_duration_seconds",
				Help:    "Field resolver duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"field"},
		),
		resolverErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refgraph_resolver_errors_total",
				Help: "Total number of failed field resolvers",
			},
			[]string{"field"},
		),
	}
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// GaugeFunc registers a gauge whose value is read from fn at gather time.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
	if err := m.registry.Register(g); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// Subscribe feeds the collectors from the global bus.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.RequestFinish) {
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.requestsTotal.WithLabelValues(e.Source, status).Inc()
		}),

		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			m.operationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
			if len(e.Errors) > 0 {
				m.operationErrors.WithLabelValues(e.OperationType).Add(float64(len(e.Errors)))
			}
		}),

		eventbus.Subscribe(func(_ context.Context, e events.ResolverFinish) {
			field := e.TypeName + "." + e.FieldName
			m.resolverDuration.WithLabelValues(field).Observe(e.Duration.Seconds())
			if e.Err != nil {
				m.resolverErrors.WithLabelValues(field).Inc()
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// WriteToTextfile writes the current metrics to path in the text exposition
// format read by the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
