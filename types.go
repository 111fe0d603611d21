package arh

import (
	"io"
	"log/slog"

	arhcore "github.com/meigma/arh/core"
)

// --- Re-exports from core ---

// Archive is a parsed header paired with its data file.
type Archive = arhcore.Archive

// ArchiveOption configures an Archive.
type ArchiveOption = arhcore.Option

// Info holds the header scalars.
type Info = arhcore.Info

// Descriptor describes one member of an archive.
type Descriptor = arhcore.Descriptor

// Outcome describes what happened to one requested member.
type Outcome = arhcore.Outcome

// Report summarizes a batch extraction.
type Report = arhcore.Report

// Status classifies an Outcome.
type Status = arhcore.Status

// MemberError records a failure while extracting a single member.
type MemberError = arhcore.MemberError

// ProgressEvent represents a progress update.
type ProgressEvent = arhcore.ProgressEvent

// ProgressStage identifies the current phase of an operation.
type ProgressStage = arhcore.ProgressStage

// ProgressFunc receives progress updates.
type ProgressFunc = arhcore.ProgressFunc

// Outcome statuses.
const (
	StatusExtracted = arhcore.StatusExtracted
	StatusNotFound  = arhcore.StatusNotFound
	StatusFailed    = arhcore.StatusFailed
)

// Progress stages.
const (
	StageResolving        = arhcore.StageResolving
	StageExtracting       = arhcore.StageExtracting
	StageFetchingManifest = arhcore.StageFetchingManifest
	StageFetchingHeader   = arhcore.StageFetchingHeader
)

// Open parses the header at headerPath and pairs it with the data file at dataPath.
func Open(headerPath, dataPath string, opts ...ArchiveOption) (*Archive, error) {
	return arhcore.Open(headerPath, dataPath, opts...)
}

// New creates an Archive from header bytes and a random-access data source.
func New(headerData []byte, data io.ReaderAt, opts ...ArchiveOption) (*Archive, error) {
	return arhcore.New(headerData, data, opts...)
}

// HashName returns the xxHash64 (seed 0) of a member filename.
func HashName(name string) uint64 {
	return arhcore.HashName(name)
}

// HashString formats a filename hash the way unresolved members are named on disk.
func HashString(hash uint64) string {
	return arhcore.HashString(hash)
}

// FormatEntry formats a descriptor as one listing line.
func FormatEntry(d Descriptor) string {
	return arhcore.FormatEntry(d)
}

// ArchiveWithWorkers sets how many members are extracted concurrently.
func ArchiveWithWorkers(n int) ArchiveOption {
	return arhcore.WithWorkers(n)
}

// ArchiveWithAtomicWrites writes members to temporary files renamed into place.
func ArchiveWithAtomicWrites(enabled bool) ArchiveOption {
	return arhcore.WithAtomicWrites(enabled)
}

// ArchiveWithLogger sets the logger used while parsing and extracting.
func ArchiveWithLogger(logger *slog.Logger) ArchiveOption {
	return arhcore.WithLogger(logger)
}

// ArchiveWithProgress sets a callback for resolution and extraction progress.
func ArchiveWithProgress(fn ProgressFunc) ArchiveOption {
	return arhcore.WithProgress(fn)
}

// ArchiveWithStrictMagic controls whether a header magic other than "arh2" is rejected.
func ArchiveWithStrictMagic(enabled bool) ArchiveOption {
	return arhcore.WithStrictMagic(enabled)
}

// ArchiveWithMaxEntries rejects headers declaring more than n members.
func ArchiveWithMaxEntries(n uint32) ArchiveOption {
	return arhcore.WithMaxEntries(n)
}
