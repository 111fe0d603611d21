package extract

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "a.txt", want: "a.txt"},
		{name: "/bdat/menu.bdat", want: "bdat/menu.bdat"},
		{name: "a//b", want: "a/b"},
		{name: "a/./b/../c", want: "a/c"},
		{name: "00000000000000AB", want: "00000000000000AB"},
		{name: "../escape", wantErr: true},
		{name: "a/../../escape", wantErr: true},
		{name: "", wantErr: true},
		{name: "/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RelPath(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, fs.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileSink_CreatesDestination(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "new", "dest")
	w, err := NewFileSink(dest).Writer("/x/y.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	got, err := os.ReadFile(filepath.Join(dest, "x", "y.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestFileSink_AtomicWrites(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	sink := NewFileSink(dest, WithAtomicWrites(true))

	w, err := sink.Writer("a/b.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("staged"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, "a", "b.txt"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, w.Commit())
	got, err := os.ReadFile(filepath.Join(dest, "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "staged", string(got))

	entries, err := os.ReadDir(filepath.Join(dest, "a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSink_DiscardRemovesFile(t *testing.T) {
	t.Parallel()

	for _, atomic := range []bool{false, true} {
		dest := t.TempDir()
		w, err := NewFileSink(dest, WithAtomicWrites(atomic)).Writer("gone.txt")
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, w.Discard())

		entries, err := os.ReadDir(dest)
		require.NoError(t, err)
		assert.Empty(t, entries, "atomic=%v", atomic)
	}
}

func TestFileSink_RejectsEscape(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	_, err := NewFileSink(dest).Writer("../outside.txt")
	require.ErrorIs(t, err, fs.ErrInvalid)

	_, statErr := os.Stat(filepath.Join(dest, "..", "outside.txt"))
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}
