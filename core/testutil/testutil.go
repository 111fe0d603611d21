// Package testutil builds synthetic header and data files for tests.
package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/meigma/arh/core/internal/names"
)

// Entry is a raw header entry.
type Entry struct {
	Hash     uint64
	DiskSize uint32
	FileSize uint32
}

// Member is a named archive member with content.
type Member struct {
	Name     string
	Data     []byte
	FileSize uint32
}

// Entry returns the header entry for m.
func (m Member) Entry() Entry {
	return Entry{
		Hash:     names.Hash(m.Name),
		DiskSize: uint32(len(m.Data)), //nolint:gosec // test data is small
		FileSize: m.FileSize,
	}
}

// EncodeHeader encodes a header with explicit scalars.
func EncodeHeader(magic string, alignment, reserved uint32, entries []Entry) []byte {
	var buf bytes.Buffer
	var tag [4]byte
	copy(tag[:], magic)
	buf.Write(tag[:])
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(entries))) //nolint:gosec // test data is small
	_ = binary.Write(&buf, binary.LittleEndian, alignment)
	_ = binary.Write(&buf, binary.LittleEndian, reserved)
	for _, e := range entries {
		_ = binary.Write(&buf, binary.LittleEndian, e.Hash)
		_ = binary.Write(&buf, binary.LittleEndian, e.DiskSize)
		_ = binary.Write(&buf, binary.LittleEndian, e.FileSize)
	}
	return buf.Bytes()
}

// BuildHeader encodes an "arh2" header for members.
func BuildHeader(alignment uint32, members []Member) []byte {
	entries := make([]Entry, len(members))
	for i, m := range members {
		entries[i] = m.Entry()
	}
	return EncodeHeader("arh2", alignment, 0, entries)
}

// BuildData lays out member content at aligned offsets, zero padded.
func BuildData(alignment uint32, members []Member) []byte {
	align := int(alignment)
	if align == 0 {
		align = 1
	}
	var buf bytes.Buffer
	for _, m := range members {
		buf.Write(m.Data)
		if pad := (align - len(m.Data)%align) % align; pad > 0 {
			buf.Write(make([]byte, pad))
		}
	}
	return buf.Bytes()
}

// WriteArchive writes a header and data file for members into dir
// and returns their paths.
func WriteArchive(tb testing.TB, dir string, alignment uint32, members []Member) (headerPath, dataPath string) {
	tb.Helper()
	headerPath = filepath.Join(dir, "archive.arh")
	dataPath = filepath.Join(dir, "archive.ard")
	WriteFile(tb, headerPath, BuildHeader(alignment, members))
	WriteFile(tb, dataPath, BuildData(alignment, members))
	return headerPath, dataPath
}

// WriteFile writes data to path, failing the test on error.
func WriteFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}

// Names returns the names of members.
func Names(members []Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Name
	}
	return out
}

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data     []byte
	sourceID string
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	sum := sha256.Sum256(data)
	return &MockByteSource{
		data:     data,
		sourceID: "mock:" + hex.EncodeToString(sum[:]),
	}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if off+int64(n) >= int64(len(m.data)) && n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// SourceID returns a stable identifier for the source data.
func (m *MockByteSource) SourceID() string {
	return m.sourceID
}
