package extract

import "io"

// Sink receives extracted member content.
type Sink interface {
	// Writer returns a writer for the member written as name.
	// The returned Committer must have Commit called after a complete copy,
	// or Discard called on any error.
	Writer(name string) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Path returns the location the content is committed to.
	Path() string

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
