package catalog

import "errors"

var (
	// ErrCollectionNotFound is returned when a collection id does not resolve.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrSegmentNotFound is returned when a segment referenced by a flush does not resolve.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrTenantNotFound is returned when a tenant has no recorded compaction state.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrMalformedSegmentType is returned when a segment type string is not a known tag.
	ErrMalformedSegmentType = errors.New("malformed segment type")

	// ErrDeletionFailed is returned when collection versions cannot be marked for deletion.
	ErrDeletionFailed = errors.New("failed to mark version for deletion")

	// ErrUnsupportedSeedVersion is returned when a seed document has a format version this build cannot read.
	ErrUnsupportedSeedVersion = errors.New("unsupported seed format version")
)
