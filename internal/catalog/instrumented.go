package catalog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vexsearch/sysdb/internal/logging"
	"github.com/vexsearch/sysdb/internal/metrics"
)

// InstrumentedCatalog wraps a Catalog with Prometheus metrics and structured logs.
type InstrumentedCatalog struct {
	inner  Catalog
	logger *logging.Logger
}

// NewInstrumentedCatalog creates a new instrumented catalog wrapper.
// A nil logger discards log output.
func NewInstrumentedCatalog(inner Catalog, logger *logging.Logger) *InstrumentedCatalog {
	if logger == nil {
		logger = logging.NewWithWriter(io.Discard)
	}
	return &InstrumentedCatalog{inner: inner, logger: logger}
}

var _ Catalog = (*InstrumentedCatalog)(nil)

func (c *InstrumentedCatalog) observe(ctx context.Context, op string, start time.Time, err error) {
	metrics.ObserveCatalogOp(op, time.Since(start).Seconds(), err)
	if err != nil {
		ctx = logging.ContextWithOperation(ctx, op)
		c.logger.WithContext(ctx).Warn("catalog operation failed", slog.String("error", err.Error()))
	}
}

// GetCollections returns the matching collections.
func (c *InstrumentedCatalog) GetCollections(ctx context.Context, filter CollectionFilter) ([]*Collection, error) {
	start := time.Now()
	collections, err := c.inner.GetCollections(ctx, filter)
	c.observe(ctx, "get_collections", start, err)
	return collections, err
}

// GetSegments returns the matching segments of a collection.
func (c *InstrumentedCatalog) GetSegments(ctx context.Context, filter SegmentFilter) ([]*Segment, error) {
	start := time.Now()
	ctx = logging.ContextWithCollection(ctx, filter.CollectionID.String())
	segments, err := c.inner.GetSegments(ctx, filter)
	c.observe(ctx, "get_segments", start, err)
	return segments, err
}

// ListDatabases returns the databases of a tenant.
func (c *InstrumentedCatalog) ListDatabases(ctx context.Context, tenant string, limit *uint32, offset uint32) ([]*Database, error) {
	start := time.Now()
	ctx = logging.ContextWithTenant(ctx, tenant)
	databases, err := c.inner.ListDatabases(ctx, tenant, limit, offset)
	c.observe(ctx, "list_databases", start, err)
	return databases, err
}

// GetLastCompactionTime returns the compaction state of tenants.
func (c *InstrumentedCatalog) GetLastCompactionTime(ctx context.Context, tenantIDs []string) ([]*Tenant, error) {
	start := time.Now()
	tenants, err := c.inner.GetLastCompactionTime(ctx, tenantIDs)
	c.observe(ctx, "get_last_compaction_time", start, err)
	return tenants, err
}

// FlushCompaction applies a compaction result and publishes the new collection state.
func (c *InstrumentedCatalog) FlushCompaction(ctx context.Context, req FlushCompactionRequest) (*FlushCompactionResponse, error) {
	start := time.Now()
	ctx = logging.ContextWithTenant(ctx, req.TenantID)
	ctx = logging.ContextWithCollection(ctx, req.CollectionID.String())

	resp, err := c.inner.FlushCompaction(ctx, req)
	c.observe(ctx, "flush_compaction", start, err)
	if err != nil {
		return nil, err
	}

	metrics.AddFlushSegments(len(req.SegmentFlushInfo))
	metrics.SetCollectionVersion(resp.CollectionID.String(), resp.CollectionVersion)
	metrics.SetTenantLastCompactionTime(req.TenantID, resp.LastCompactionTime)

	c.logger.WithContext(ctx).Info("compaction flushed",
		slog.Int("collection_version", int(resp.CollectionVersion)),
		slog.Int64("log_position", req.LogPosition),
		slog.Int("segments", len(req.SegmentFlushInfo)),
		slog.Int64("last_compaction_time", resp.LastCompactionTime),
	)
	return resp, nil
}

// MarkVersionForDeletion marks collection versions for garbage collection.
func (c *InstrumentedCatalog) MarkVersionForDeletion(ctx context.Context, epochID int64, versions []VersionListForCollection) error {
	start := time.Now()
	err := c.inner.MarkVersionForDeletion(ctx, epochID, versions)
	c.observe(ctx, "mark_version_for_deletion", start, err)
	return err
}

// DeleteCollectionVersion deletes collection versions.
func (c *InstrumentedCatalog) DeleteCollectionVersion(ctx context.Context, versions []VersionListForCollection) (map[string]bool, error) {
	start := time.Now()
	results, err := c.inner.DeleteCollectionVersion(ctx, versions)
	c.observe(ctx, "delete_collection_version", start, err)
	return results, err
}

// GetCollectionSize returns the post-compaction record count of a collection.
func (c *InstrumentedCatalog) GetCollectionSize(ctx context.Context, collectionID uuid.UUID) (uint64, error) {
	start := time.Now()
	ctx = logging.ContextWithCollection(ctx, collectionID.String())
	size, err := c.inner.GetCollectionSize(ctx, collectionID)
	c.observe(ctx, "get_collection_size", start, err)
	return size, err
}
