package header

import (
	"encoding/binary"
	"io"
)

// MarshalBinary encodes the table in the header file layout. Decoding the
// result yields the same scalars and descriptors, minus any attached names.
func (t *Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, preambleSize+entrySize*len(t.entries))
	copy(buf[0:4], t.magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], t.count)
	binary.LittleEndian.PutUint32(buf[8:12], t.alignment)
	binary.LittleEndian.PutUint32(buf[12:16], t.reserved)

	off := preambleSize
	for _, d := range t.entries {
		binary.LittleEndian.PutUint64(buf[off:off+8], d.Hash)
		binary.LittleEndian.PutUint32(buf[off+8:off+12], d.DiskSize)
		binary.LittleEndian.PutUint32(buf[off+12:off+16], d.FileSize)
		off += entrySize
	}
	return buf, nil
}

// WriteTo writes the encoded table to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	buf, err := t.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}
