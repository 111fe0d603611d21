package archtype

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors shared across packages.
var (
	// ErrFormat is returned when header content is malformed.
	ErrFormat = errors.New("arh: invalid header")

	// ErrTruncated is returned when the header ends before all declared entries are read.
	// It matches ErrFormat and io.ErrUnexpectedEOF with errors.Is.
	ErrTruncated error = truncatedError{}

	// ErrNotFound is returned when a name does not resolve to any member.
	ErrNotFound = errors.New("arh: member not found")

	// ErrSizeOverflow is returned when offsets or sizes exceed supported limits.
	ErrSizeOverflow = errors.New("arh: size overflow")
)

type truncatedError struct{}

func (truncatedError) Error() string { return "arh: truncated header" }

func (truncatedError) Is(target error) bool {
	return target == ErrFormat || target == io.ErrUnexpectedEOF
}

// MemberError records a failure while extracting a single member.
type MemberError struct {
	// Op is the step that failed, such as "open", "mkdir", "create", or "copy".
	Op string

	// Name is the member's output name.
	Name string

	// Hash is the member's filename hash.
	Hash uint64

	// Err is the underlying error.
	Err error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%s %s (0x%016X): %v", e.Op, e.Name, e.Hash, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}
