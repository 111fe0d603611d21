package arh

import (
	arhcore "github.com/meigma/arh/core"
	"github.com/meigma/arh/registry"
)

// Errors re-exported from core.
var (
	// ErrFormat is returned when header content is malformed.
	ErrFormat = arhcore.ErrFormat

	// ErrTruncated is returned when the header ends before all declared entries.
	ErrTruncated = arhcore.ErrTruncated

	// ErrMemberNotFound is returned when a name does not resolve to any member.
	ErrMemberNotFound = arhcore.ErrNotFound

	// ErrSizeOverflow is returned when offsets or sizes exceed supported limits.
	ErrSizeOverflow = arhcore.ErrSizeOverflow
)

// Errors re-exported from registry.
var (
	// ErrNotFound is returned when no archive exists at the reference.
	ErrNotFound = registry.ErrNotFound

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = registry.ErrInvalidReference

	// ErrInvalidManifest is returned when a manifest does not describe an archive.
	ErrInvalidManifest = registry.ErrInvalidManifest

	// ErrMissingHeader is returned when the manifest has no header layer.
	ErrMissingHeader = registry.ErrMissingHeader

	// ErrMissingData is returned when the manifest has no data layer.
	ErrMissingData = registry.ErrMissingData

	// ErrDigestMismatch is returned when content does not match its expected digest.
	ErrDigestMismatch = registry.ErrDigestMismatch

	// ErrHeaderTooLarge is returned when the header blob exceeds the pull limit.
	ErrHeaderTooLarge = registry.ErrHeaderTooLarge
)
