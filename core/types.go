package arh

import (
	"github.com/meigma/arh/core/internal/archtype"
	"github.com/meigma/arh/core/internal/names"
)

// Re-export types from internal/archtype for public API.
type (
	// Descriptor describes one member of an archive.
	Descriptor = archtype.Descriptor

	// MemberError records a failure while extracting a single member.
	MemberError = archtype.MemberError

	// ProgressEvent represents a progress update during operations.
	ProgressEvent = archtype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = archtype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	ProgressFunc = archtype.ProgressFunc
)

// Re-export progress stage constants.
const (
	StageResolving        = archtype.StageResolving
	StageExtracting       = archtype.StageExtracting
	StageFetchingManifest = archtype.StageFetchingManifest
	StageFetchingHeader   = archtype.StageFetchingHeader
)

// Sentinel errors re-exported from internal/archtype.
var (
	// ErrFormat is returned when header content is malformed.
	ErrFormat = archtype.ErrFormat

	// ErrTruncated is returned when the header ends before all declared entries.
	ErrTruncated = archtype.ErrTruncated

	// ErrNotFound is returned when a name does not resolve to any member.
	ErrNotFound = archtype.ErrNotFound

	// ErrSizeOverflow is returned when offsets or sizes exceed supported limits.
	ErrSizeOverflow = archtype.ErrSizeOverflow
)

// HashName returns the xxHash64 (seed 0) of a member filename.
func HashName(name string) uint64 {
	return names.Hash(name)
}

// HashString formats a filename hash as unresolved members are named on disk.
func HashString(hash uint64) string {
	return archtype.HashName(hash)
}
