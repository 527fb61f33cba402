package pgstmt

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/syssam/pgstmt/dialect/sql"
)

// MustRegisterMetrics registers all statement metrics on the given registry.
// It panics if metrics with the same names are already registered.
func MustRegisterMetrics(registry *prometheus.Registry) {
	registry.MustRegister(statementDuration, statementCounter, batchSize)
}

func sampleStatement(kind sql.Kind, elapsed time.Duration, err error) {
	labels := prometheus.Labels{
		"status": status(err),
		"kind":   string(kind),
	}
	statementDuration.With(labels).Observe(elapsed.Seconds())
	statementCounter.With(labels).Inc()
}

func sampleBatch(n int, err error) {
	batchSize.With(prometheus.Labels{"status": status(err)}).Observe(float64(n))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	statementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pgstmt_statement_duration_seconds",
			Help: "Duration of a statement, from connect to commit",
			Buckets: []float64{
				.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
				2.5, 5, 10, 30,
			},
		},
		[]string{"status", "kind"},
	)
	statementCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgstmt_statements_total",
			Help: "Total of executed statements",
		},
		[]string{"status", "kind"},
	)
	batchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pgstmt_batch_size_statements",
			Help:    "Number of statements per ExecuteMany call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"status"},
	)
)
