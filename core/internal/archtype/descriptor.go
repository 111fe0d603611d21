// Package archtype holds the types shared by the header, extract, and
// archive packages.
package archtype

import "fmt"

// Descriptor describes one member of an archive.
type Descriptor struct {
	// Hash is the xxHash64 (seed 0) of the member's filename.
	Hash uint64

	// DiskSize is the number of bytes the member occupies in the data file.
	DiskSize uint32

	// FileSize is the uncompressed size recorded in the header.
	// Zero means the member is stored uncompressed. The value is informational.
	FileSize uint32

	// Offset is the byte offset of the member in the data file.
	// It is not stored in the header; it is rebuilt from the aligned sizes
	// of all preceding members.
	Offset uint64

	// Name is the resolved filename, or empty when unresolved.
	Name string
}

// Resolved reports whether a filename has been attached to the descriptor.
func (d Descriptor) Resolved() bool {
	return d.Name != ""
}

// Compressed reports whether the header records a distinct uncompressed size.
func (d Descriptor) Compressed() bool {
	return d.FileSize != 0 && d.FileSize != d.DiskSize
}

// End returns the offset one past the member's last byte.
func (d Descriptor) End() uint64 {
	return d.Offset + uint64(d.DiskSize)
}

// OutputName returns the name used when the member is written to disk:
// the resolved name, or the 16-digit uppercase hex hash.
func (d Descriptor) OutputName() string {
	if d.Name != "" {
		return d.Name
	}
	return HashName(d.Hash)
}

// HashName formats a filename hash the way unresolved members are named.
func HashName(hash uint64) string {
	return fmt.Sprintf("%016X", hash)
}
