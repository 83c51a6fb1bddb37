package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the generation service.
type Metrics struct {
	GenerationTotal      *prometheus.CounterVec
	GenerationDurationMs *prometheus.HistogramVec
	UpstreamDurationMs   *prometheus.HistogramVec
	TokensTotal          *prometheus.CounterVec
	CostUSDTotal         *prometheus.CounterVec
	RateLimitHitsTotal   prometheus.Counter
	InjectionFlagsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics on the default
// registerer.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourdesk_generation_total",
			Help: "Total generation requests by entity and outcome.",
		}, []string{"entity", "status"}),

		GenerationDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tourdesk_generation_duration_ms",
			Help:    "End-to-end generation pipeline duration in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"entity"}),

		UpstreamDurationMs: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tourdesk_upstream_duration_ms",
			Help:    "Generator call latency in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"provider"}),

		TokensTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourdesk_tokens_total",
			Help: "Total tokens consumed by generation calls.",
		}, []string{"entity", "model", "direction"}),

		CostUSDTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourdesk_cost_usd_total",
			Help: "Estimated total generation cost in USD.",
		}, []string{"entity", "model", "provider"}),

		RateLimitHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tourdesk_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter.",
		}),

		InjectionFlagsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tourdesk_injection_flags_total",
			Help: "User inputs flagged as possible prompt injection.",
		}, []string{"entity"}),
	}
}

// GenerationLabels holds the values recorded for one pipeline run.
type GenerationLabels struct {
	Entity           string
	Model            string
	Provider         string
	Status           string
	DurationMs       float64
	UpstreamMs       float64
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// RecordGeneration records metrics for a completed pipeline run.
func (m *Metrics) RecordGeneration(labels GenerationLabels) {
	m.GenerationTotal.WithLabelValues(labels.Entity, labels.Status).Inc()
	m.GenerationDurationMs.WithLabelValues(labels.Entity).Observe(labels.DurationMs)

	if labels.Provider != "" && labels.UpstreamMs > 0 {
		m.UpstreamDurationMs.WithLabelValues(labels.Provider).Observe(labels.UpstreamMs)
	}

	if labels.PromptTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Entity, labels.Model, "prompt").Add(float64(labels.PromptTokens))
	}
	if labels.CompletionTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Entity, labels.Model, "completion").Add(float64(labels.CompletionTokens))
	}

	if labels.CostUSD > 0 {
		m.CostUSDTotal.WithLabelValues(labels.Entity, labels.Model, labels.Provider).Add(labels.CostUSD)
	}
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) RecordInjectionFlag(entity string) {
	m.InjectionFlagsTotal.WithLabelValues(entity).Inc()
}
