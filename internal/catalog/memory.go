package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vexsearch/sysdb/internal/logging"
)

// deletionFailureVersion is the version that MarkVersionForDeletion refuses to mark.
const deletionFailureVersion int64 = 1

// MemoryCatalog is an in-memory Catalog. A single mutex serializes every operation,
// reads included, so each call observes and leaves a consistent catalog.
type MemoryCatalog struct {
	mu                       sync.Mutex
	collections              map[uuid.UUID]*Collection
	segments                 map[uuid.UUID]*Segment
	tenantLastCompactionTime map[string]int64

	logger *logging.Logger
}

// Option configures a MemoryCatalog.
type Option func(*MemoryCatalog)

// WithLogger sets the logger used to report suspicious but accepted requests.
func WithLogger(logger *logging.Logger) Option {
	return func(c *MemoryCatalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog(opts ...Option) *MemoryCatalog {
	c := &MemoryCatalog{
		collections:              make(map[uuid.UUID]*Collection),
		segments:                 make(map[uuid.UUID]*Segment),
		tenantLastCompactionTime: make(map[string]int64),
		logger:                   logging.NewWithWriter(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Catalog = (*MemoryCatalog)(nil)

// AddCollection registers a collection, replacing any collection with the same id.
func (c *MemoryCatalog) AddCollection(collection Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections[collection.ID] = collection.Clone()
}

// AddSegment registers a segment, replacing any segment with the same id.
func (c *MemoryCatalog) AddSegment(segment Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.segments[segment.ID] = segment.Clone()
}

// AddTenantLastCompactionTime seeds the compaction state of a tenant.
func (c *MemoryCatalog) AddTenantLastCompactionTime(tenant string, lastCompactionTime int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenantLastCompactionTime[tenant] = lastCompactionTime
}

// UpdateCollectionSize overwrites the post-compaction record count of a collection.
func (c *MemoryCatalog) UpdateCollectionSize(collectionID uuid.UUID, size uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	collection, ok := c.collections[collectionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}
	collection.TotalRecordsPostCompaction = size
	return nil
}

// Stats holds record counts of a catalog.
type Stats struct {
	Collections int
	Segments    int
	Tenants     int
}

// Stats returns the number of records currently held.
func (c *MemoryCatalog) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Collections: len(c.collections),
		Segments:    len(c.segments),
		Tenants:     len(c.tenantLastCompactionTime),
	}
}

// GetCollections returns copies of the matching collections ordered by id.
func (c *MemoryCatalog) GetCollections(ctx context.Context, filter CollectionFilter) ([]*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	collections := make([]*Collection, 0)
	for _, collection := range c.collections {
		if !filter.Matches(collection) {
			continue
		}
		collections = append(collections, collection.Clone())
	}

	sort.Slice(collections, func(i, j int) bool {
		return bytes.Compare(collections[i].ID[:], collections[j].ID[:]) < 0
	})
	return collections, nil
}

// GetSegments returns copies of the matching segments ordered by id.
// Every supplied field must match, including Type.
func (c *MemoryCatalog) GetSegments(ctx context.Context, filter SegmentFilter) ([]*Segment, error) {
	var segmentType *SegmentType
	if filter.Type != nil {
		parsed, err := ParseSegmentType(*filter.Type)
		if err != nil {
			return nil, err
		}
		segmentType = &parsed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	segments := make([]*Segment, 0)
	for _, segment := range c.segments {
		if segment.CollectionID != filter.CollectionID {
			continue
		}
		if filter.ID != nil && *filter.ID != segment.ID {
			continue
		}
		if segmentType != nil && *segmentType != segment.Type {
			continue
		}
		if filter.Scope != nil && *filter.Scope != segment.Scope {
			continue
		}
		segments = append(segments, segment.Clone())
	}

	sort.Slice(segments, func(i, j int) bool {
		return bytes.Compare(segments[i].ID[:], segments[j].ID[:]) < 0
	})
	return segments, nil
}

// ListDatabases returns one Database per distinct database name among the tenant's
// collections, ordered by name. Offset entries are skipped, then at most limit are
// returned; a nil or zero limit means no limit. Database ids are generated per call.
func (c *MemoryCatalog) ListDatabases(ctx context.Context, tenant string, limit *uint32, offset uint32) ([]*Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, collection := range c.collections {
		if collection.Tenant != tenant {
			continue
		}
		if _, ok := seen[collection.Database]; ok {
			continue
		}
		seen[collection.Database] = struct{}{}
		names = append(names, collection.Database)
	}
	sort.Strings(names)

	if int(offset) >= len(names) {
		names = names[:0]
	} else {
		names = names[offset:]
	}
	if limit != nil && *limit > 0 && len(names) > int(*limit) {
		names = names[:*limit]
	}

	databases := make([]*Database, 0, len(names))
	for _, name := range names {
		databases = append(databases, &Database{
			ID:     uuid.New(),
			Name:   name,
			Tenant: tenant,
		})
	}
	return databases, nil
}

// GetLastCompactionTime returns the compaction state of every requested tenant.
// The first unknown tenant fails the whole call.
func (c *MemoryCatalog) GetLastCompactionTime(ctx context.Context, tenantIDs []string) ([]*Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tenants := make([]*Tenant, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		lastCompactionTime, ok := c.tenantLastCompactionTime[tenantID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}
		tenants = append(tenants, &Tenant{
			ID:                 tenantID,
			LastCompactionTime: lastCompactionTime,
		})
	}
	return tenants, nil
}

// FlushCompaction records a finished compaction. All referenced segments are resolved
// before anything is written, so a failed flush leaves the catalog unchanged.
// The new collection version is derived from req.CollectionVersion, not the stored one.
func (c *MemoryCatalog) FlushCompaction(ctx context.Context, req FlushCompactionRequest) (*FlushCompactionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	collection, ok := c.collections[req.CollectionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, req.CollectionID)
	}

	for _, info := range req.SegmentFlushInfo {
		segment, ok := c.segments[info.SegmentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSegmentNotFound, info.SegmentID)
		}
		if _, ok := c.collections[segment.CollectionID]; !ok {
			return nil, fmt.Errorf("%w: %s (owner of segment %s)", ErrCollectionNotFound, segment.CollectionID, segment.ID)
		}
	}

	if collection.Version != req.CollectionVersion {
		if logging.CollectionFromContext(ctx) == "" {
			ctx = logging.ContextWithCollection(ctx, req.CollectionID.String())
		}
		c.logger.WithContext(ctx).Warn("flush with stale collection version",
			slog.Int("stored_version", int(collection.Version)),
			slog.Int("request_version", int(req.CollectionVersion)),
		)
	}

	newVersion := req.CollectionVersion + 1
	collection.LogPosition = req.LogPosition
	collection.Version = newVersion
	collection.TotalRecordsPostCompaction = req.TotalRecordsPostCompaction

	for _, info := range req.SegmentFlushInfo {
		c.segments[info.SegmentID].FilePaths = cloneFilePaths(info.FilePaths)
	}

	lastCompactionTime := c.tenantLastCompactionTime[req.TenantID] + 1
	c.tenantLastCompactionTime[req.TenantID] = lastCompactionTime

	return &FlushCompactionResponse{
		CollectionID:       req.CollectionID,
		CollectionVersion:  newVersion,
		LastCompactionTime: lastCompactionTime,
	}, nil
}

// MarkVersionForDeletion fails if any listed collection asks to mark version 1.
func (c *MemoryCatalog) MarkVersionForDeletion(ctx context.Context, epochID int64, versions []VersionListForCollection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, list := range versions {
		if slices.Contains(list.Versions, deletionFailureVersion) {
			return fmt.Errorf("%w: collection %s version %d", ErrDeletionFailed, list.CollectionID, deletionFailureVersion)
		}
	}
	return nil
}

// DeleteCollectionVersion reports every listed collection as deleted.
func (c *MemoryCatalog) DeleteCollectionVersion(ctx context.Context, versions []VersionListForCollection) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make(map[string]bool, len(versions))
	for _, list := range versions {
		results[list.CollectionID] = true
	}
	return results, nil
}

// GetCollectionSize returns the post-compaction record count of a collection.
func (c *MemoryCatalog) GetCollectionSize(ctx context.Context, collectionID uuid.UUID) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	collection, ok := c.collections[collectionID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionID)
	}
	return collection.TotalRecordsPostCompaction, nil
}
