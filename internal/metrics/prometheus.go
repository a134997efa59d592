package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline metrics
	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selene_pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"}, // status: success|error
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "selene_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	SignalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selene_signals_generated_total",
			Help: "Total trading signals generated",
		},
		[]string{"direction"}, // direction: BUY|SELL|HOLD
	)

	SymbolFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selene_symbol_failures_total",
			Help: "Per-symbol failures isolated by the pipeline",
		},
		[]string{"stage"}, // stage: fetch|score|persist
	)

	// Upstream metrics
	UpstreamAPICalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selene_upstream_api_calls_total",
			Help: "Total social metrics provider API calls",
		},
		[]string{"endpoint", "status"}, // status: success|error|rate_limited
	)

	AIGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selene_ai_generations_total",
			Help: "Total AI scoring calls",
		},
		[]string{"status"}, // status: success|fallback
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selene_kafka_messages_total",
			Help: "Total Kafka messages produced/consumed",
		},
		[]string{"topic", "direction", "status"}, // direction: produced|consumed
	)

	WebSocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "selene_websocket_connections",
			Help: "Current number of active progress WebSocket connections",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(SignalsGenerated)
	prometheus.MustRegister(SymbolFailures)

	prometheus.MustRegister(UpstreamAPICalls)
	prometheus.MustRegister(AIGenerations)

	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(WebSocketConnections)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
