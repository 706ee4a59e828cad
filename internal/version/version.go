// Package version tracks the format versions of documents sysdb reads and writes.
// Readers accept every version in [MinVersion, CurrentVersion] so a catalog dump
// written by the previous release still loads after an upgrade.
package version

import (
	"fmt"
)

const (
	// SeedFormatVersionCurrent is the current seed document format version.
	SeedFormatVersionCurrent = 1
	// SeedFormatVersionMin is the minimum seed version this node can read.
	SeedFormatVersionMin = 1
)

// SupportedVersions tracks which versions of a format are readable.
type SupportedVersions struct {
	CurrentVersion int
	MinVersion     int
}

// SeedVersions returns the supported seed document versions.
func SeedVersions() SupportedVersions {
	return SupportedVersions{
		CurrentVersion: SeedFormatVersionCurrent,
		MinVersion:     SeedFormatVersionMin,
	}
}

// CanRead returns true if the given version is readable by this node.
func (sv SupportedVersions) CanRead(version int) bool {
	return version >= sv.MinVersion && version <= sv.CurrentVersion
}

// ErrVersionTooOld indicates a format version is older than the minimum supported.
type ErrVersionTooOld struct {
	Format     string
	Version    int
	MinVersion int
}

func (e *ErrVersionTooOld) Error() string {
	return fmt.Sprintf("%s format version %d is too old (minimum: %d)", e.Format, e.Version, e.MinVersion)
}

// ErrVersionTooNew indicates a format version is newer than this node can read.
type ErrVersionTooNew struct {
	Format         string
	Version        int
	CurrentVersion int
}

func (e *ErrVersionTooNew) Error() string {
	return fmt.Sprintf("%s format version %d is too new for this node (current: %d)", e.Format, e.Version, e.CurrentVersion)
}

// CheckSeedVersion validates a seed format version is readable.
// Zero means the document predates versioning and is read as current.
func CheckSeedVersion(version int) error {
	if version == 0 {
		return nil
	}
	sv := SeedVersions()
	if version < sv.MinVersion {
		return &ErrVersionTooOld{Format: "seed", Version: version, MinVersion: sv.MinVersion}
	}
	if version > sv.CurrentVersion {
		return &ErrVersionTooNew{Format: "seed", Version: version, CurrentVersion: sv.CurrentVersion}
	}
	return nil
}
