package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upb/cognate/models"
)

const namespace = "cognate"

// Metrics holds the dispatch counters and histograms
type Metrics struct {
	registry *prometheus.Registry

	ProviderCalls    *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	ProviderTokens   *prometheus.CounterVec
	Rounds           prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProviderCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "calls_total",
				Help:      "Total number of provider calls by terminal status",
			},
			[]string{"provider", "status"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "call_duration_seconds",
				Help:      "Duration of successful provider calls in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"provider"},
		),
		ProviderTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "tokens_total",
				Help:      "Tokens reported by providers",
			},
			[]string{"provider", "kind"}, // kind: prompt/completion
		),
		Rounds: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rounds_total",
				Help:      "Total number of dispatch rounds started",
			},
		),
	}
}

// ObserveResult records one finalized provider result
func (m *Metrics) ObserveResult(providerID string, outcome models.Outcome) {
	if m == nil {
		return
	}

	m.ProviderCalls.WithLabelValues(providerID, string(outcome.Status)).Inc()
	if outcome.Status != models.ResultStatusSuccess {
		return
	}

	m.ProviderDuration.WithLabelValues(providerID).
		Observe((time.Duration(outcome.ElapsedMillis) * time.Millisecond).Seconds())
	m.ProviderTokens.WithLabelValues(providerID, "prompt").Add(float64(outcome.TokenUsage.PromptTokens))
	m.ProviderTokens.WithLabelValues(providerID, "completion").Add(float64(outcome.TokenUsage.CompletionTokens))
}

// ObserveRound records a started round
func (m *Metrics) ObserveRound() {
	if m == nil {
		return
	}
	m.Rounds.Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
