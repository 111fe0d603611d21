// Package header decodes the ARH header file into an immutable member table.
//
// The header is a fixed little-endian layout: a 16-byte preamble (magic,
// member count, alignment, reserved) followed by one 16-byte entry per member
// (filename hash, disk size, uncompressed size). Member offsets in the data
// file are not stored; they are rebuilt by summing the aligned disk sizes of
// all preceding members.
package header

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/meigma/arh/core/internal/archtype"
	"github.com/meigma/arh/core/internal/sizing"
)

// Magic is the format tag expected at the start of a header file.
const Magic = "arh2"

const (
	preambleSize = 16
	entrySize    = 16

	// initialCapacity bounds the up-front allocation so a corrupt count
	// cannot force a huge allocation before any entry is read.
	initialCapacity = 4096
)

// Table is a parsed header. A Table is never modified after construction;
// attaching names produces a new Table.
type Table struct {
	magic     [4]byte
	count     uint32
	alignment uint32
	reserved  uint32
	entries   []archtype.Descriptor
	byHash    map[uint64]int // first index per hash, shared between derived tables
}

type config struct {
	checkMagic bool
	maxEntries uint32
}

// Option configures parsing.
type Option func(*config)

// WithMagicCheck controls whether a magic other than "arh2" is rejected.
// The check is enabled by default.
func WithMagicCheck(enabled bool) Option {
	return func(c *config) {
		c.checkMagic = enabled
	}
}

// WithMaxEntries rejects headers declaring more than n members.
// Zero disables the limit.
func WithMaxEntries(n uint32) Option {
	return func(c *config) {
		c.maxEntries = n
	}
}

// Parse reads a header from r.
//
// It returns an error wrapping archtype.ErrTruncated when r ends before the
// declared number of entries is read, archtype.ErrFormat for a bad magic or
// a non power-of-two alignment, and archtype.ErrSizeOverflow when the
// rebuilt offsets do not fit in 64 bits. Other read failures are wrapped.
func Parse(r io.Reader, opts ...Option) (*Table, error) {
	cfg := config{checkMagic: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var buf [preambleSize]byte
	if err := readFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}

	t := &Table{
		count:     binary.LittleEndian.Uint32(buf[4:8]),
		alignment: binary.LittleEndian.Uint32(buf[8:12]),
		reserved:  binary.LittleEndian.Uint32(buf[12:16]),
	}
	copy(t.magic[:], buf[0:4])

	if cfg.checkMagic && string(t.magic[:]) != Magic {
		return nil, fmt.Errorf("%w: magic %q, want %q", archtype.ErrFormat, t.magic[:], Magic)
	}
	align, err := effectiveAlignment(t.alignment)
	if err != nil {
		return nil, err
	}
	if cfg.maxEntries > 0 && t.count > cfg.maxEntries {
		return nil, fmt.Errorf("%w: %d entries exceeds limit %d", archtype.ErrFormat, t.count, cfg.maxEntries)
	}

	t.entries = make([]archtype.Descriptor, 0, min(t.count, initialCapacity))
	t.byHash = make(map[uint64]int, min(t.count, initialCapacity))

	var cursor uint64
	for i := range t.count {
		if err := readFull(r, buf[:entrySize]); err != nil {
			return nil, fmt.Errorf("read entry %d of %d: %w", i, t.count, err)
		}
		d := archtype.Descriptor{
			Hash:     binary.LittleEndian.Uint64(buf[0:8]),
			DiskSize: binary.LittleEndian.Uint32(buf[8:12]),
			FileSize: binary.LittleEndian.Uint32(buf[12:16]),
			Offset:   cursor,
		}
		next, ok := sizing.AddUint64(cursor, AlignUp(uint64(d.DiskSize), align))
		if !ok {
			return nil, fmt.Errorf("entry %d offset: %w", i, archtype.ErrSizeOverflow)
		}
		cursor = next

		if _, seen := t.byHash[d.Hash]; !seen {
			t.byHash[d.Hash] = len(t.entries)
		}
		t.entries = append(t.entries, d)
	}
	return t, nil
}

// Decode parses a header held in memory.
func Decode(data []byte, opts ...Option) (*Table, error) {
	return Parse(bytes.NewReader(data), opts...)
}

// Load opens and parses the header file at path.
func Load(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied header path
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(bufio.NewReader(f), opts...)
}

// readFull maps a short read to ErrTruncated.
func readFull(r io.Reader, p []byte) error {
	_, err := io.ReadFull(r, p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return archtype.ErrTruncated
	}
	return err
}

// Magic returns the format tag read from the header.
func (t *Table) Magic() [4]byte {
	return t.magic
}

// Count returns the declared member count.
func (t *Table) Count() uint32 {
	return t.count
}

// Alignment returns the alignment value as stored in the header.
func (t *Table) Alignment() uint32 {
	return t.alignment
}

// Reserved returns the unused header field.
func (t *Table) Reserved() uint32 {
	return t.reserved
}

// Len returns the number of members.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns the descriptor at index i in on-disk order.
func (t *Table) At(i int) archtype.Descriptor {
	return t.entries[i]
}

// All iterates descriptors in on-disk order.
func (t *Table) All() iter.Seq2[int, archtype.Descriptor] {
	return func(yield func(int, archtype.Descriptor) bool) {
		for i, d := range t.entries {
			if !yield(i, d) {
				return
			}
		}
	}
}

// Descriptors returns a copy of all descriptors in on-disk order.
func (t *Table) Descriptors() []archtype.Descriptor {
	out := make([]archtype.Descriptor, len(t.entries))
	copy(out, t.entries)
	return out
}

// DataSize returns the minimum data file size implied by the header:
// the end of the last member.
func (t *Table) DataSize() uint64 {
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1].End()
}
