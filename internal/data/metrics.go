package data

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "people_store_operations_total",
			Help: "Store operations on the personas table, by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	storeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "people_store_operation_duration_seconds",
			Help:    "Wall time of store operations, connection acquisition included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// observe records the outcome and duration of one store operation.
func observe(operation string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrRecordNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrInvalidPerson):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	storeOperations.WithLabelValues(operation, outcome).Inc()
	storeDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
