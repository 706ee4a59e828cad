// Package catalog implements the system catalog: tenants, databases, collections and
// the segments that back each collection, plus the compaction flush that updates them.
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Catalog is the set of metadata operations a compaction pipeline and query layer rely on.
// MemoryCatalog implements it in process; a persistent backend can implement it as well.
type Catalog interface {
	// GetCollections returns every collection matching all non-nil fields of the filter.
	GetCollections(ctx context.Context, filter CollectionFilter) ([]*Collection, error)

	// GetSegments returns the segments of filter.CollectionID matching the other filter fields.
	GetSegments(ctx context.Context, filter SegmentFilter) ([]*Segment, error)

	// ListDatabases returns the distinct databases holding collections of tenant.
	ListDatabases(ctx context.Context, tenant string, limit *uint32, offset uint32) ([]*Database, error)

	// GetLastCompactionTime returns the compaction state of each tenant, in input order.
	GetLastCompactionTime(ctx context.Context, tenantIDs []string) ([]*Tenant, error)

	// FlushCompaction applies the result of a compaction to a collection and its segments.
	FlushCompaction(ctx context.Context, req FlushCompactionRequest) (*FlushCompactionResponse, error)

	// MarkVersionForDeletion marks collection versions as eligible for garbage collection.
	MarkVersionForDeletion(ctx context.Context, epochID int64, versions []VersionListForCollection) error

	// DeleteCollectionVersion deletes collection versions, reporting success per collection id.
	DeleteCollectionVersion(ctx context.Context, versions []VersionListForCollection) (map[string]bool, error)

	// GetCollectionSize returns the record count of a collection after its last compaction.
	GetCollectionSize(ctx context.Context, collectionID uuid.UUID) (uint64, error)
}
