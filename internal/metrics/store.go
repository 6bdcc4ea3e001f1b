package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UnknownResource labels operations on resources absent from the store, so
// arbitrary path segments cannot create new series.
const UnknownResource = "unknown"

// Store metrics. The records gauge is process-wide: routers sharing a
// process and a resource name report into the same series.
var (
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_operations_total",
			Help:      "Total number of record store operations",
		},
		[]string{"op", "resource", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Record store operation duration in seconds",
			Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"op", "resource"},
	)

	StoreRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "store_records",
			Help:      "Number of records per resource",
		},
		[]string{"resource"},
	)

	PersistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "persist_total",
			Help:      "Snapshot writes to the persistence backend",
		},
		[]string{"status"},
	)

	PersistDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "persist_duration_seconds",
			Help:      "Snapshot write duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)

var registerStore sync.Once

// RegisterStoreMetrics registers the store metrics. Safe to call more than once.
func RegisterStoreMetrics() {
	registerStore.Do(func() {
		prometheus.MustRegister(
			StoreOperationsTotal,
			StoreOperationDuration,
			StoreRecords,
			PersistTotal,
			PersistDuration,
		)
	})
}

// ObserveOperation records one store operation.
func ObserveOperation(op, resource string, d time.Duration, err error) {
	StoreOperationsTotal.WithLabelValues(op, resource, status(err)).Inc()
	StoreOperationDuration.WithLabelValues(op, resource).Observe(d.Seconds())
}

// ObservePersist records one snapshot write.
func ObservePersist(d time.Duration, err error) {
	PersistTotal.WithLabelValues(status(err)).Inc()
	PersistDuration.Observe(d.Seconds())
}

// SetRecords sets the record count of a resource.
func SetRecords(resource string, n int) {
	StoreRecords.WithLabelValues(resource).Set(float64(n))
}

// DeleteRecords drops the gauge of a resource that no longer exists.
func DeleteRecords(resource string) {
	StoreRecords.DeleteLabelValues(resource)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
