package ingest

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the ingest metrics. It is separate from the default
// registry so a batch run can be exported as a node_exporter textfile.
var Registry = prometheus.NewRegistry()

var (
	documentsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodplan_ingest_documents_total",
			Help: "Source documents processed, by outcome",
		},
		[]string{"outcome"}, // ok, partial, failed
	)

	recipesTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "prodplan_ingest_recipes_total",
			Help: "Recipes normalized successfully",
		},
	)

	recipeFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodplan_ingest_failures_total",
			Help: "Recipe or document failures, by reason",
		},
		[]string{"reason"},
	)

	ingestDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prodplan_ingest_duration_seconds",
			Help:    "Time taken to ingest a batch of source documents",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)
)

const (
	outcomeOK      = "ok"
	outcomePartial = "partial"
	outcomeFailed  = "failed"
)

// WriteMetrics writes the current ingest metrics to path in the Prometheus
// text format.
func WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
