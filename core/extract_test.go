package arh

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arh/core/testutil"
)

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestExtractOne(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	dest := t.TempDir()

	o, err := a.ExtractOne(context.Background(), "/script/main.sb", dest)
	require.NoError(t, err)
	assert.Equal(t, StatusExtracted, o.Status)
	assert.Equal(t, filepath.Join(dest, "script", "main.sb"), o.Path)
	assert.Equal(t, uint64(33), o.Bytes)
	assert.Equal(t, digest.FromBytes(sampleMembers[1].Data), o.Digest)
	assert.Equal(t, sampleMembers[1].Data, readFile(t, o.Path))
}

func TestExtractOne_NotFound(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	dest := t.TempDir()

	o, err := a.ExtractOne(context.Background(), "missing.txt", dest)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StatusNotFound, o.Status)
	assert.Equal(t, HashName("missing.txt"), o.Hash)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractOne_Cancelled(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dest := t.TempDir()
	o, err := a.ExtractOne(ctx, "readme.txt", dest)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, "readme.txt", o.Name)
	assert.Equal(t, HashName("readme.txt"), o.Hash)
	require.ErrorIs(t, o.Err, context.Canceled)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractAll_UnresolvedUseHashNames(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	dest := t.TempDir()

	report, err := a.ExtractAll(context.Background(), dest)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, uint64(10+33+5), report.Bytes)

	for _, m := range sampleMembers {
		name := fmt.Sprintf("%016X", HashName(m.Name))
		assert.Len(t, name, 16)
		assert.Equal(t, m.Data, readFile(t, filepath.Join(dest, name)))
	}
}

func TestExtractAll_ResolvedNames(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var events []ProgressEvent
	a := openSample(t, 16, WithProgress(func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}))
	a.SupplyFilenames([]string{"/bdat/menu.bdat", "readme.txt"})
	dest := t.TempDir()

	report, err := a.ExtractAll(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)

	assert.Equal(t, []byte("menu table"), readFile(t, filepath.Join(dest, "bdat", "menu.bdat")))
	assert.Equal(t, []byte("hello"), readFile(t, filepath.Join(dest, "readme.txt")))
	unresolved := HashString(HashName("/script/main.sb"))
	assert.Equal(t, sampleMembers[1].Data, readFile(t, filepath.Join(dest, unresolved)))

	var extracting []ProgressEvent
	for _, e := range events {
		if e.Stage == StageExtracting {
			extracting = append(extracting, e)
		}
	}
	require.Len(t, extracting, 3)
	for i, e := range extracting {
		assert.Equal(t, i+1, e.FilesDone)
		assert.Equal(t, 3, e.FilesTotal)
	}
	assert.Equal(t, "readme.txt", extracting[2].Name)
	assert.Equal(t, uint64(48), extracting[2].BytesDone)
}

func TestExtractAll_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	a.SupplyFilenames(testutil.Names(sampleMembers))
	dest := t.TempDir()

	// A directory where the second member's file should go makes its create fail.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "script", "main.sb"), 0o750))

	report, err := a.ExtractAll(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, StatusExtracted, report.Outcomes[0].Status)
	assert.Equal(t, StatusFailed, report.Outcomes[1].Status)
	assert.Equal(t, StatusExtracted, report.Outcomes[2].Status)

	var memberErr *MemberError
	require.ErrorAs(t, report.Outcomes[1].Err, &memberErr)
	assert.Equal(t, "/script/main.sb", memberErr.Name)
	require.ErrorAs(t, report.Err(), &memberErr)

	assert.Equal(t, []byte("menu table"), readFile(t, filepath.Join(dest, "bdat", "menu.bdat")))
	assert.Equal(t, []byte("hello"), readFile(t, filepath.Join(dest, "readme.txt")))
}

func TestExtractAll_ShortDataFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	headerPath, dataPath := testutil.WriteArchive(t, dir, 16, sampleMembers)
	data := readFile(t, dataPath)
	testutil.WriteFile(t, dataPath, data[:66])

	a, err := Open(headerPath, dataPath)
	require.NoError(t, err)

	report, err := a.ExtractAll(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, StatusFailed, report.Outcomes[2].Status)
}

func TestExtractAll_Parallel(t *testing.T) {
	t.Parallel()

	members := make([]testutil.Member, 64)
	for i := range members {
		members[i] = testutil.Member{
			Name: fmt.Sprintf("/shared/dir%d/file%02d.bin", i%4, i),
			Data: bytes.Repeat([]byte{byte(i)}, 100+i*7),
		}
	}
	headerPath, dataPath := testutil.WriteArchive(t, t.TempDir(), 32, members)

	var mu sync.Mutex
	last := 0
	a, err := Open(headerPath, dataPath, WithWorkers(8), WithAtomicWrites(true), WithProgress(func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		if e.Stage == StageExtracting {
			last = e.FilesDone
		}
	}))
	require.NoError(t, err)
	a.SupplyFilenames(testutil.Names(members))

	dest := t.TempDir()
	report, err := a.ExtractAll(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, 64, report.Succeeded)
	assert.Equal(t, 64, last)

	for i, m := range members {
		assert.Equal(t, m.Name, report.Outcomes[i].Name)
		assert.Equal(t, m.Data, readFile(t, filepath.Join(dest, filepath.FromSlash(m.Name[1:]))))
	}
}

func TestExtractAll_Cancelled(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := a.ExtractAll(ctx, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Attempted)
}

func TestExtractMany(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	dest := t.TempDir()

	report, err := a.ExtractMany(context.Background(), []string{"readme.txt", "nope.txt", "/bdat/menu.bdat"}, dest)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, StatusNotFound, report.Outcomes[1].Status)
	require.ErrorIs(t, report.Err(), ErrNotFound)

	assert.Equal(t, []byte("hello"), readFile(t, filepath.Join(dest, "readme.txt")))
	assert.Equal(t, []byte("menu table"), readFile(t, filepath.Join(dest, "bdat", "menu.bdat")))
	assert.Equal(t, 2, a.Resolved())
}

func TestExtractMany_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "script", "main.sb"), 0o750))

	requested := []string{"/bdat/menu.bdat", "/script/main.sb", "readme.txt"}
	report, err := a.ExtractMany(context.Background(), requested, dest)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Attempted)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Zero(t, report.NotFound)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, StatusExtracted, report.Outcomes[0].Status)
	assert.Equal(t, StatusFailed, report.Outcomes[1].Status)
	assert.Equal(t, StatusExtracted, report.Outcomes[2].Status)

	var memberErr *MemberError
	require.ErrorAs(t, report.Outcomes[1].Err, &memberErr)
	assert.Equal(t, "/script/main.sb", memberErr.Name)

	assert.Equal(t, []byte("menu table"), readFile(t, filepath.Join(dest, "bdat", "menu.bdat")))
	assert.Equal(t, []byte("hello"), readFile(t, filepath.Join(dest, "readme.txt")))
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "extracted", StatusExtracted.String())
	assert.Equal(t, "not found", StatusNotFound.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", Status(99).String())
}
