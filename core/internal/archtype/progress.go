package archtype

// ProgressEvent represents a progress update during pull, resolution, or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the member currently being processed, if applicable.
	Name string

	// BytesDone is the number of bytes completed in the current operation.
	BytesDone uint64

	// BytesTotal is the total bytes for the current operation.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of members completed.
	FilesDone int

	// FilesTotal is the total number of members.
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages.
const (
	// StageResolving indicates filenames are being matched against member hashes.
	StageResolving ProgressStage = iota

	// StageExtracting indicates members are being written to disk.
	StageExtracting

	// StageFetchingManifest indicates the manifest is being fetched.
	StageFetchingManifest

	// StageFetchingHeader indicates the header blob is being fetched.
	StageFetchingHeader
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageResolving:
		return "resolving"
	case StageExtracting:
		return "extracting"
	case StageFetchingManifest:
		return "fetching manifest"
	case StageFetchingHeader:
		return "fetching header"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Calls are serialized by the caller.
type ProgressFunc func(ProgressEvent)
