// Package namelist reads newline-delimited candidate filename lists.
//
// Lists may be plain text, zstd or lz4 frame compressed; compression is
// detected from the frame magic, not the file extension.
package namelist

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Frame magics, little-endian as stored.
var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// maxLineSize bounds a single name.
const maxLineSize = 1 << 20

// Read returns the lines of r. A trailing "\r" is stripped from each line;
// blank lines and duplicates are kept. A final line without a newline is
// included; a trailing newline does not produce an empty last entry.
func Read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var out []string
	for sc.Scan() {
		out = append(out, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read name list: %w", err)
	}
	return out, nil
}

// Decode reads a list from r, decompressing it if it is zstd or lz4.
func Decode(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read name list: %w", err)
	}

	switch {
	case bytes.Equal(head, zstdMagic):
		dec, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd name list: %w", err)
		}
		defer dec.Close()
		return Read(dec)
	case bytes.Equal(head, lz4Magic):
		names, err := Read(lz4.NewReader(br))
		if err != nil {
			return nil, fmt.Errorf("lz4 name list: %w", err)
		}
		return names, nil
	default:
		return Read(br)
	}
}

// Load reads the list file at path.
func Load(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // caller-supplied list path
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
