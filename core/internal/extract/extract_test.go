package extract

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arh/core/internal/archtype"
	"github.com/meigma/arh/core/testutil"
)

func TestExtract_CopiesExactRange(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789abcdefXYZ")
	dest := t.TempDir()
	e := NewExtractor(ReaderAtOpener(bytes.NewReader(data)))

	d := archtype.Descriptor{Hash: 1, DiskSize: 3, Offset: 16, Name: "dir/sub/x.bin"}
	res, err := e.Extract(d, NewFileSink(dest))
	require.NoError(t, err)

	want := filepath.Join(dest, "dir", "sub", "x.bin")
	assert.Equal(t, want, res.Path)
	assert.Equal(t, uint64(3), res.Bytes)
	assert.Equal(t, digest.FromBytes([]byte("XYZ")), res.Digest)

	got, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, []byte("XYZ"), got)
}

func TestExtract_HashNameFallback(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	e := NewExtractor(ReaderAtOpener(bytes.NewReader([]byte("payload"))))

	d := archtype.Descriptor{Hash: 0xAB, DiskSize: 7}
	res, err := e.Extract(d, NewFileSink(dest))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "00000000000000AB"), res.Path)
	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestExtract_ZeroSize(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	e := NewExtractor(ReaderAtOpener(bytes.NewReader(nil)))

	res, err := e.Extract(archtype.Descriptor{Hash: 2, Name: "empty"}, NewFileSink(dest))
	require.NoError(t, err)
	assert.Zero(t, res.Bytes)

	info, err := os.Stat(filepath.Join(dest, "empty"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestExtract_OverwritesExisting(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dest, "f"), []byte("a much longer previous content"))

	e := NewExtractor(ReaderAtOpener(bytes.NewReader([]byte("new"))))
	_, err := e.Extract(archtype.Descriptor{Hash: 3, DiskSize: 3, Name: "f"}, NewFileSink(dest))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dest, "f"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestExtract_ShortDataFile(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	e := NewExtractor(ReaderAtOpener(bytes.NewReader([]byte("abc"))))

	_, err := e.Extract(archtype.Descriptor{Hash: 4, DiskSize: 10, Name: "short"}, NewFileSink(dest))
	var memberErr *archtype.MemberError
	require.ErrorAs(t, err, &memberErr)
	assert.Equal(t, "copy", memberErr.Op)
	assert.Equal(t, "short", memberErr.Name)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, statErr := os.Stat(filepath.Join(dest, "short"))
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestExtract_OpenFailure(t *testing.T) {
	t.Parallel()

	e := NewExtractor(FileOpener(filepath.Join(t.TempDir(), "missing.ard")))
	_, err := e.Extract(archtype.Descriptor{Hash: 5, DiskSize: 1, Name: "x"}, NewFileSink(t.TempDir()))

	var memberErr *archtype.MemberError
	require.ErrorAs(t, err, &memberErr)
	assert.Equal(t, "open", memberErr.Op)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestExtract_FileOpener(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.ard")
	testutil.WriteFile(t, dataPath, []byte("hello, world"))

	e := NewExtractor(FileOpener(dataPath))
	dest := filepath.Join(dir, "out")
	res, err := e.Extract(archtype.Descriptor{Hash: 6, DiskSize: 5, Offset: 7, Name: "w.txt"}, NewFileSink(dest))
	require.NoError(t, err)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))
}

func TestExtract_SinkFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("sink unavailable")
	e := NewExtractor(ReaderAtOpener(bytes.NewReader([]byte("x"))))
	_, err := e.Extract(archtype.Descriptor{Hash: 7, DiskSize: 1, Name: "x"}, failingSink{err: boom})

	var memberErr *archtype.MemberError
	require.ErrorAs(t, err, &memberErr)
	assert.Equal(t, "create", memberErr.Op)
	assert.ErrorIs(t, err, boom)
}

type failingSink struct{ err error }

func (s failingSink) Writer(string) (Committer, error) { return nil, s.err }

type countingReaderAt struct {
	r     io.ReaderAt
	reads atomic.Int64
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.reads.Add(1)
	return c.r.ReadAt(p, off)
}

func TestExtract_LargeMemberReadsInFewCalls(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("0123456789abcdef"), 4<<20/16)
	src := &countingReaderAt{r: bytes.NewReader(data)}
	e := NewExtractor(ReaderAtOpener(src))

	res, err := e.Extract(archtype.Descriptor{Hash: 8, DiskSize: uint32(len(data)), Name: "big.bin"}, NewFileSink(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), res.Bytes)
	assert.Equal(t, digest.FromBytes(data), res.Digest)
	assert.LessOrEqual(t, src.reads.Load(), int64(5))
}
