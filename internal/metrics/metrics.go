// Package metrics provides Prometheus metrics for the sysdb catalog.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sysdb"

var (
	// CatalogOps tracks catalog operations by outcome.
	CatalogOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_ops_total",
			Help:      "Total catalog operations",
		},
		[]string{"operation", "status"}, // status: success/error
	)

	// CatalogOpLatency tracks catalog operation latency.
	CatalogOpLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_op_latency_seconds",
			Help:      "Catalog operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// FlushSegmentsTotal tracks segments whose file paths were replaced by a flush.
	FlushSegmentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_segments_total",
			Help:      "Total segments rewritten by compaction flushes",
		},
	)

	// CollectionVersion tracks the latest flushed version per collection.
	CollectionVersion = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_version",
			Help:      "Collection version after the latest flush",
		},
		[]string{"collection"},
	)

	// TenantLastCompactionTime tracks the compaction counter per tenant.
	TenantLastCompactionTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tenant_last_compaction_time",
			Help:      "Last compaction time recorded for a tenant",
		},
		[]string{"tenant"},
	)

	// ObjectStoreOps tracks object store reads by outcome.
	ObjectStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objectstore_ops_total",
			Help:      "Total object store operations",
		},
		[]string{"operation", "status"},
	)

	// ObjectStoreLatency tracks object store operation latency.
	ObjectStoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "objectstore_latency_seconds",
			Help:      "Object store operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// CollectionsRegistered tracks how many collections the catalog holds.
	CollectionsRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collections_registered",
			Help:      "Number of collections registered in the catalog",
		},
	)
)

// ObserveCatalogOp records a catalog operation.
func ObserveCatalogOp(operation string, latencySeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CatalogOps.WithLabelValues(operation, status).Inc()
	CatalogOpLatency.WithLabelValues(operation).Observe(latencySeconds)
}

// ObserveObjectStoreOp records an object store operation.
func ObserveObjectStoreOp(operation string, latencySeconds float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ObjectStoreOps.WithLabelValues(operation, status).Inc()
	ObjectStoreLatency.WithLabelValues(operation).Observe(latencySeconds)
}

// AddFlushSegments adds n rewritten segments.
func AddFlushSegments(n int) {
	if n > 0 {
		FlushSegmentsTotal.Add(float64(n))
	}
}

// SetCollectionVersion sets the version gauge for a collection.
func SetCollectionVersion(collection string, version int32) {
	CollectionVersion.WithLabelValues(collection).Set(float64(version))
}

// SetTenantLastCompactionTime sets the compaction gauge for a tenant.
func SetTenantLastCompactionTime(tenant string, lastCompactionTime int64) {
	TenantLastCompactionTime.WithLabelValues(tenant).Set(float64(lastCompactionTime))
}

// SetCollectionsRegistered sets the registered collection count.
func SetCollectionsRegistered(n int) {
	CollectionsRegistered.Set(float64(n))
}
