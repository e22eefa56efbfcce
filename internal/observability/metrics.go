// Package observability holds the Prometheus instruments and the in-process latency window
// shared by the pipeline, dispatcher and API.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	Resolutions      *prometheus.CounterVec
	Fallbacks        *prometheus.CounterVec
	ResolverLatency  prometheus.Histogram
	DispatchOutcomes *prometheus.CounterVec
	PersistErrors    prometheus.Counter
	WSMessages       *prometheus.CounterVec

	Latency *LatencyWindow

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments with reg. A nil reg uses a private registry.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolved utterances by tier and outcome.",
		}, []string{"tier", "outcome"}),
		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Fallbacks to the intent classifier by reason.",
		}, []string{"reason"}),
		ResolverLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolver_latency_ms",
			Help:      "Semantic resolver round trip in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2000, 4000, 8000},
		}),
		DispatchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_outcomes_total",
			Help:      "Dispatched commands by kind and result.",
		}, []string{"kind", "result"}),
		PersistErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_persist_errors_total",
			Help:      "Conversation memory writes that failed to persist.",
		}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		Latency:  NewLatencyWindow(256),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveResolverLatency(d time.Duration) {
	m.ResolverLatency.Observe(float64(d.Milliseconds()))
	m.Latency.Observe(StageResolve, d)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
