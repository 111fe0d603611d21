package arh

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEntry(t *testing.T) {
	t.Parallel()

	d := Descriptor{Hash: 0xAB, DiskSize: 0x1F, Offset: 0x2A0, Name: "a/b.txt"}
	assert.Equal(t, "File a/b.txt (0x00000000000000AB): 2A0, 1F", FormatEntry(d))

	d.Name = ""
	assert.Equal(t, "File  (0x00000000000000AB): 2A0, 1F", FormatEntry(d))
}

func TestList(t *testing.T) {
	t.Parallel()

	a := openSample(t, 16)
	a.SupplyFilenames([]string{"readme.txt"})

	var buf bytes.Buffer
	require.NoError(t, a.List(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, FormatEntry(a.Descriptors()[0]), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "File  (0x"))
	assert.True(t, strings.HasSuffix(lines[1], "): 10, 21"))
	assert.True(t, strings.HasPrefix(lines[2], "File readme.txt (0x"))
	assert.True(t, strings.HasSuffix(lines[2], "): 40, 5"))
}
