package extract

import (
	"io"
	"os"
)

// Reader is an open handle on the data file.
type Reader interface {
	io.ReaderAt
	io.Closer
}

// Opener opens the data file for a single extraction.
//
// Local files are opened once per member so that concurrent extractions
// never share a file handle.
type Opener interface {
	Open() (Reader, error)
}

// FileOpener opens the data file at a local path.
type FileOpener string

// Open implements Opener.
func (p FileOpener) Open() (Reader, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ReaderAtOpener returns an Opener that hands out r for every extraction.
// r must be safe for concurrent ReadAt calls; it is never closed.
func ReaderAtOpener(r io.ReaderAt) Opener {
	return sharedOpener{r: r}
}

type sharedOpener struct {
	r io.ReaderAt
}

func (s sharedOpener) Open() (Reader, error) {
	return nopCloser{s.r}, nil
}

type nopCloser struct {
	io.ReaderAt
}

func (nopCloser) Close() error { return nil }
