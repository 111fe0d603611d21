package arh

import (
	"bufio"
	"fmt"
	"io"
)

// FormatEntry renders d as a listing line:
//
//	File <name> (0x<hash>): <offset>, <disk size>
//
// The hash is 16 uppercase hex digits; offset and size are uppercase hex.
// Unresolved members have an empty name.
func FormatEntry(d Descriptor) string {
	return fmt.Sprintf("File %s (0x%016X): %X, %X", d.Name, d.Hash, d.Offset, d.DiskSize)
}

// List writes one FormatEntry line per member, in on-disk order.
func (a *Archive) List(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, d := range a.All() {
		if _, err := fmt.Fprintln(bw, FormatEntry(d)); err != nil {
			return err
		}
	}
	return bw.Flush()
}
