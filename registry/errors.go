package registry

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrNotFound is returned when no archive exists at the reference.
	ErrNotFound = errors.New("registry: not found")

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = errors.New("registry: invalid reference")

	// ErrInvalidManifest is returned when a manifest does not describe an archive.
	ErrInvalidManifest = errors.New("registry: invalid archive manifest")

	// ErrMissingHeader is returned when the manifest has no header layer.
	ErrMissingHeader = errors.New("registry: missing header blob")

	// ErrMissingData is returned when the manifest has no data layer.
	ErrMissingData = errors.New("registry: missing data blob")

	// ErrDigestMismatch is returned when content does not match its expected digest.
	ErrDigestMismatch = errors.New("registry: digest mismatch")

	// ErrHeaderTooLarge is returned when the header blob exceeds the pull limit.
	ErrHeaderTooLarge = errors.New("registry: header blob too large")
)
