// Package cache defines the caches used when pulling archives from a registry.
package cache

import "io"

// RefCache caches reference to manifest digest mappings so repeated pulls of
// the same tag skip the resolve round trip.
type RefCache interface {
	// GetDigest returns the digest for a reference if cached.
	GetDigest(ref string) (digest string, ok bool)

	// PutDigest caches a reference to digest mapping.
	PutDigest(ref string, digest string) error

	// Delete removes a cached reference.
	Delete(ref string) error
}

// HeaderCache caches header (.arh) blobs by their content digest.
//
// Entries are immutable: a digest always maps to the same bytes.
type HeaderCache interface {
	// GetHeader returns the cached header bytes for a digest.
	GetHeader(digest string) (header []byte, ok bool)

	// PutHeader caches raw header bytes by digest.
	PutHeader(digest string, raw []byte) error

	// Delete removes a cached header.
	Delete(digest string) error

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}

// Source is a random-access view of a remote data (.ard) file.
type Source interface {
	io.ReaderAt

	// Size returns the total size of the data in bytes.
	Size() int64

	// SourceID identifies the content. It is part of every block key, so it
	// must be stable across runs and differ between different contents.
	SourceID() string
}

// BlockCache keeps fixed-size blocks of remote data files so that
// extraction reads, which arrive in small sequential chunks, turn into
// few large fetches and can be replayed without touching the network.
type BlockCache interface {
	// Wrap returns a Source that serves reads of src through the cache.
	Wrap(src Source) (Source, error)

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}
