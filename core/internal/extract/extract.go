// Package extract copies member byte ranges from the data file into a sink.
package extract

import (
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/arh/core/internal/archtype"
	"github.com/meigma/arh/core/internal/sizing"
)

// maxCopyBuffer bounds the read size used per member. Each read is one
// ReadAt on the source, which for remote data is one range request.
const maxCopyBuffer = 1 << 20

// Result describes a member written to a sink.
type Result struct {
	// Path is where the content was committed.
	Path string

	// Bytes is the number of bytes copied.
	Bytes uint64

	// Digest is the sha256 digest of the copied bytes.
	Digest digest.Digest
}

// Extractor copies members out of the data file.
type Extractor struct {
	opener Opener
}

// NewExtractor creates an Extractor reading from opener.
func NewExtractor(opener Opener) *Extractor {
	return &Extractor{opener: opener}
}

// Extract copies exactly d.DiskSize bytes starting at d.Offset into sink,
// under d.OutputName(). Failures are returned as *archtype.MemberError;
// a data file too short to hold the member fails with io.ErrUnexpectedEOF.
func (e *Extractor) Extract(d archtype.Descriptor, sink Sink) (Result, error) {
	name := d.OutputName()
	fail := func(op string, err error) (Result, error) {
		return Result{}, &archtype.MemberError{Op: op, Name: name, Hash: d.Hash, Err: err}
	}

	off, n, err := sizing.Section(d.Offset, d.DiskSize, archtype.ErrSizeOverflow)
	if err != nil {
		return fail("seek", err)
	}

	r, err := e.opener.Open()
	if err != nil {
		return fail("open", err)
	}
	defer r.Close()

	w, err := sink.Writer(name)
	if err != nil {
		return fail("create", err)
	}

	digester := digest.Canonical.Digester()
	buf := make([]byte, max(min(n, maxCopyBuffer), 1))
	written, err := io.CopyBuffer(io.MultiWriter(w, digester.Hash()), io.NewSectionReader(r, off, n), buf)
	if err == nil && written < n {
		err = fmt.Errorf("%w: copied %d of %d bytes at offset %d", io.ErrUnexpectedEOF, written, n, off)
	}
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		return fail("copy", err)
	}
	if err := w.Commit(); err != nil {
		return fail("commit", err)
	}

	return Result{
		Path:   w.Path(),
		Bytes:  uint64(written), //nolint:gosec // written is never negative
		Digest: digester.Digest(),
	}, nil
}
