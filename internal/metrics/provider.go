package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider Prometheus metrics (text generation and embedding).
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maya",
			Name:      "generation_requests_total",
			Help:      "Total number of text-generation requests",
		},
		[]string{"backend", "model", "status"},
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "maya",
			Name:      "generation_request_duration_seconds",
			Help:      "Text-generation request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend", "model"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maya",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"backend", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "maya",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maya",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maya",
			Name:      "dispatch_total",
			Help:      "Total dispatch invocations by resolved category",
		},
		[]string{"category"},
	)

	ClassifierFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maya",
			Name:      "classifier_fallback_total",
			Help:      "Classifications coerced to the general category",
		},
		[]string{"reason"}, // "provider_error" / "unrecognized"
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider and dispatch metrics.
// Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(GenerationRequestsTotal)
	prometheus.MustRegister(GenerationRequestDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(DispatchTotal)
	prometheus.MustRegister(ClassifierFallbackTotal)
	providerMetricsRegistered = true
}
