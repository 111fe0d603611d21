package oras

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrNotFound is returned when a blob or manifest does not exist.
	ErrNotFound = errors.New("oci: not found")

	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("oci: unauthorized")

	// ErrForbidden is returned when access is denied.
	ErrForbidden = errors.New("oci: forbidden")

	// ErrInvalidReference is returned when a reference string is malformed.
	ErrInvalidReference = errors.New("oci: invalid reference")

	// ErrInvalidDescriptor is returned when a descriptor is nil or has invalid fields.
	ErrInvalidDescriptor = errors.New("oci: invalid descriptor")

	// ErrManifestInvalid is returned when a manifest cannot be parsed.
	ErrManifestInvalid = errors.New("oci: invalid manifest")

	// ErrManifestTooLarge is returned when a manifest exceeds the fetch limit.
	ErrManifestTooLarge = errors.New("oci: manifest too large")
)
