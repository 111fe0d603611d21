package namelist

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/arh/core/testutil"
)

func TestRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single without newline", input: "a.txt", want: []string{"a.txt"}},
		{name: "trailing newline", input: "a\nb\n", want: []string{"a", "b"}},
		{name: "crlf", input: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "keeps blanks and duplicates", input: "a\n\na\n", want: []string{"a", "", "a"}},
		{name: "keeps spaces", input: " a \n", want: []string{" a "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Read(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Zstd(t *testing.T) {
	t.Parallel()

	plain := "/bdat/menu.bdat\n/script/main.sb\n"
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(plain), nil)
	require.NoError(t, enc.Close())

	got, err := Decode(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, []string{"/bdat/menu.bdat", "/script/main.sb"}, got)
}

func TestDecode_LZ4(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte("/chr/en/en010101.wimdo\n/chr/en/en010102.wimdo"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"/chr/en/en010101.wimdo", "/chr/en/en010102.wimdo"}, got)
}

func TestDecode_ShortPlain(t *testing.T) {
	t.Parallel()

	got, err := Decode(strings.NewReader("ab"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ab"}, got)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "names.txt")
	testutil.WriteFile(t, path, []byte("one\ntwo\n"))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)

	_, err = Load(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}
