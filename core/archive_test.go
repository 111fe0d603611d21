package arh

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arh/core/testutil"
)

var sampleMembers = []testutil.Member{
	{Name: "/bdat/menu.bdat", Data: []byte("menu table"), FileSize: 40},
	{Name: "/script/main.sb", Data: bytes.Repeat([]byte{0x5A}, 33)},
	{Name: "readme.txt", Data: []byte("hello")},
}

func openSample(t *testing.T, alignment uint32, opts ...Option) *Archive {
	t.Helper()
	headerPath, dataPath := testutil.WriteArchive(t, t.TempDir(), alignment, sampleMembers)
	a, err := Open(headerPath, dataPath, opts...)
	require.NoError(t, err)
	return a
}

func TestOpen(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, Info{Magic: "arh2", Count: 3, Alignment: 16}, a.Info())
	assert.Equal(t, int64(len(testutil.BuildData(16, sampleMembers))), a.DataSize())

	ds := a.Descriptors()
	require.Len(t, ds, 3)
	assert.Equal(t, uint64(0), ds[0].Offset)
	assert.Equal(t, uint64(16), ds[1].Offset)
	assert.Equal(t, uint64(64), ds[2].Offset)
	assert.Equal(t, HashName("/script/main.sb"), ds[1].Hash)
	assert.True(t, ds[0].Compressed())
	assert.False(t, ds[1].Compressed())
	assert.Zero(t, a.Resolved())
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	headerPath, dataPath := testutil.WriteArchive(t, dir, 16, sampleMembers)

	_, err := Open(filepath.Join(dir, "missing.arh"), dataPath)
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = Open(headerPath, filepath.Join(dir, "missing.ard"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = Open(headerPath, dir)
	require.Error(t, err)

	badPath := filepath.Join(dir, "bad.arh")
	testutil.WriteFile(t, badPath, []byte("arh2\x05\x00\x00\x00"))
	_, err = Open(badPath, dataPath)
	require.ErrorIs(t, err, ErrTruncated)
	require.ErrorIs(t, err, ErrFormat)
}

func TestOpen_StrictMagic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	headerPath := filepath.Join(dir, "h.arh")
	dataPath := filepath.Join(dir, "d.ard")
	testutil.WriteFile(t, headerPath, testutil.EncodeHeader("ARH2", 4, 0, nil))
	testutil.WriteFile(t, dataPath, nil)

	_, err := Open(headerPath, dataPath)
	require.ErrorIs(t, err, ErrFormat)

	a, err := Open(headerPath, dataPath, WithStrictMagic(false))
	require.NoError(t, err)
	assert.Equal(t, "ARH2", a.Info().Magic)
}

func TestNew_InMemory(t *testing.T) {
	t.Parallel()

	headerData := testutil.BuildHeader(8, sampleMembers)
	a, err := New(headerData, testutil.NewMockByteSource(testutil.BuildData(8, sampleMembers)))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Len())

	out, err := a.MarshalHeader()
	require.NoError(t, err)
	assert.Equal(t, headerData, out)

	_, err = New(headerData[:20], bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestFindByName(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)

	d, ok := a.FindByName("readme.txt")
	require.True(t, ok)
	assert.Equal(t, "readme.txt", d.Name)
	assert.Equal(t, uint32(5), d.DiskSize)
	assert.Equal(t, "readme.txt", a.Descriptors()[2].Name)
	assert.Equal(t, 1, a.Resolved())

	_, ok = a.FindByName("README.TXT")
	assert.False(t, ok)
}

func TestSupplyFilenames(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	a := openSample(t, 16, WithProgress(func(e ProgressEvent) {
		events = append(events, e)
	}))

	candidates := append(testutil.Names(sampleMembers), "unrelated/one", "unrelated/two")
	n := a.SupplyFilenames(candidates)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, a.Resolved())
	for i, d := range a.All() {
		assert.Equal(t, sampleMembers[i].Name, d.Name)
	}

	before := a.Descriptors()
	assert.Equal(t, 3, a.SupplyFilenames(candidates))
	assert.Equal(t, before, a.Descriptors())

	require.Len(t, events, 2)
	assert.Equal(t, StageResolving, events[0].Stage)
	assert.Equal(t, 3, events[0].FilesDone)
	assert.Equal(t, 5, events[0].FilesTotal)
}

func TestSupplyFilenames_ConcurrentWithLookups(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	candidates := testutil.Names(sampleMembers)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.SupplyFilenames(candidates)
		}()
		go func() {
			defer wg.Done()
			_, ok := a.FindByName("readme.txt")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, a.Resolved())
}
