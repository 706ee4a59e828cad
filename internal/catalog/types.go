package catalog

import (
	"fmt"

	"github.com/google/uuid"
)

// SegmentScope is the semantic role a segment plays for its collection.
type SegmentScope string

const (
	ScopeVector   SegmentScope = "VECTOR"
	ScopeMetadata SegmentScope = "METADATA"
	ScopeRecord   SegmentScope = "RECORD"
	ScopeSQLite   SegmentScope = "SQLITE"
)

// SegmentType identifies the storage implementation behind a segment.
type SegmentType string

const (
	SegmentTypeHNSWLocalMemory    SegmentType = "urn:chroma:segment/vector/hnsw-local-memory"
	SegmentTypeHNSWLocalPersisted SegmentType = "urn:chroma:segment/vector/hnsw-local-persisted"
	SegmentTypeHNSWDistributed    SegmentType = "urn:chroma:segment/vector/hnsw-distributed"
	SegmentTypeBlockfileRecord    SegmentType = "urn:chroma:segment/record/blockfile"
	SegmentTypeSqlite             SegmentType = "urn:chroma:segment/metadata/sqlite"
	SegmentTypeBlockfileMetadata  SegmentType = "urn:chroma:segment/metadata/blockfile"
	SegmentTypeSpann              SegmentType = "urn:chroma:segment/vector/spann"
	SegmentTypeQuantizedSpann     SegmentType = "urn:chroma:segment/vector/quantized-spann"
)

// ParseSegmentType converts a type tag string into a SegmentType.
// Returns ErrMalformedSegmentType if s is not a known tag.
func ParseSegmentType(s string) (SegmentType, error) {
	switch t := SegmentType(s); t {
	case SegmentTypeHNSWLocalMemory,
		SegmentTypeHNSWLocalPersisted,
		SegmentTypeHNSWDistributed,
		SegmentTypeBlockfileRecord,
		SegmentTypeSqlite,
		SegmentTypeBlockfileMetadata,
		SegmentTypeSpann,
		SegmentTypeQuantizedSpann:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrMalformedSegmentType, s)
	}
}

// Collection is a named logical dataset owned by a tenant and database.
type Collection struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Tenant   string    `json:"tenant" yaml:"tenant"`
	Database string    `json:"database" yaml:"database"`

	// LogPosition is the offset of the last durable write folded into the collection.
	LogPosition int64 `json:"log_position" yaml:"log_position"`

	// Version increases by exactly one per successful flush.
	Version int32 `json:"version" yaml:"version"`

	TotalRecordsPostCompaction uint64 `json:"total_records_post_compaction" yaml:"total_records_post_compaction"`
}

// Segment is a physical storage unit backing part of one collection.
type Segment struct {
	ID           uuid.UUID    `json:"id" yaml:"id"`
	CollectionID uuid.UUID    `json:"collection_id" yaml:"collection_id"`
	Scope        SegmentScope `json:"scope" yaml:"scope"`
	Type         SegmentType  `json:"type" yaml:"type"`

	// FilePaths maps a file kind to its storage locations. Flushes replace it wholesale.
	FilePaths map[string][]string `json:"file_paths,omitempty" yaml:"file_paths,omitempty"`
}

// Database is synthesized from the collections of a tenant; it is never stored.
type Database struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Tenant string    `json:"tenant"`
}

// Tenant carries the compaction bookkeeping of one tenant.
type Tenant struct {
	ID                 string `json:"id"`
	LastCompactionTime int64  `json:"last_compaction_time"`
}

// SegmentFlushInfo names a segment and the file paths a flush assigns to it.
type SegmentFlushInfo struct {
	SegmentID uuid.UUID
	FilePaths map[string][]string
}

// FlushCompactionRequest describes the catalog update issued after a compaction.
type FlushCompactionRequest struct {
	TenantID     string
	CollectionID uuid.UUID
	LogPosition  int64

	// CollectionVersion is the version the caller observed; the new version is CollectionVersion+1.
	CollectionVersion int32

	SegmentFlushInfo           []SegmentFlushInfo
	TotalRecordsPostCompaction uint64
}

// FlushCompactionResponse reports the state produced by a successful flush.
type FlushCompactionResponse struct {
	CollectionID       uuid.UUID `json:"collection_id"`
	CollectionVersion  int32     `json:"collection_version"`
	LastCompactionTime int64     `json:"last_compaction_time"`
}

// VersionListForCollection lists versions of one collection.
type VersionListForCollection struct {
	TenantID     string  `json:"tenant_id"`
	DatabaseID   string  `json:"database_id"`
	CollectionID string  `json:"collection_id"`
	Versions     []int64 `json:"versions"`
}

// CollectionFilter selects collections. Nil fields impose no constraint.
type CollectionFilter struct {
	ID       *uuid.UUID
	Name     *string
	Tenant   *string
	Database *string
}

// Matches reports whether c satisfies every non-nil field of f.
func (f CollectionFilter) Matches(c *Collection) bool {
	if f.ID != nil && *f.ID != c.ID {
		return false
	}
	if f.Name != nil && *f.Name != c.Name {
		return false
	}
	if f.Tenant != nil && *f.Tenant != c.Tenant {
		return false
	}
	if f.Database != nil && *f.Database != c.Database {
		return false
	}
	return true
}

// SegmentFilter selects the segments of one collection. CollectionID is required;
// nil fields impose no constraint. Type is the string form of a SegmentType.
type SegmentFilter struct {
	ID           *uuid.UUID
	Type         *string
	Scope        *SegmentScope
	CollectionID uuid.UUID
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	clone := *c
	return &clone
}

// Clone returns a deep copy of the segment, including its file paths.
func (s *Segment) Clone() *Segment {
	clone := *s
	clone.FilePaths = cloneFilePaths(s.FilePaths)
	return &clone
}

func cloneFilePaths(paths map[string][]string) map[string][]string {
	if paths == nil {
		return nil
	}
	out := make(map[string][]string, len(paths))
	for kind, locations := range paths {
		out[kind] = append([]string(nil), locations...)
	}
	return out
}

// StringPtr returns a pointer to s, for building filters.
func StringPtr(s string) *string {
	return &s
}
