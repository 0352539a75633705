package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	IntentClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_classifications_total",
			Help:      "Classified intents by label and source",
		},
		[]string{"intent", "source"}, // source: "model" / "heuristic"
	)

	ExtractionFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_fallbacks_total",
			Help:      "Extraction fields resolved by a fallback instead of the model output",
		},
		[]string{"intent", "field", "reason"}, // reason: "absent" / "invalid" / "unparsed"
	)

	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_requests_total",
			Help:      "Dataset retrievals by outcome",
		},
		[]string{"dataset", "outcome"}, // outcome: "hit" / "empty"
	)

	DatasetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows loaded per dataset",
		},
		[]string{"dataset"},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers classification, extraction and retrieval metrics.
// Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(IntentClassificationsTotal)
	prometheus.MustRegister(ExtractionFallbacksTotal)
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(DatasetRows)
	pipelineMetricsRegistered = true
}

// RecordRetrieval counts one retrieval and whether it found anything.
func RecordRetrieval(dataset string, n int) {
	outcome := "hit"
	if n == 0 {
		outcome = "empty"
	}
	RetrievalRequestsTotal.WithLabelValues(dataset, outcome).Inc()
}
