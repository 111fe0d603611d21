package arh

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/meigma/arh/core/internal/extract"
	"github.com/meigma/arh/core/internal/header"
)

// Archive is a parsed header paired with its data file.
//
// The member table is immutable; attaching names swaps in a rebuilt table,
// so lookups running concurrently with SupplyFilenames see either the old
// or the new table. An Archive is safe for concurrent use.
type Archive struct {
	table     atomic.Pointer[header.Table]
	extractor *extract.Extractor
	dataSize  int64 // -1 when unknown

	workers      int
	atomicWrites bool
	strictMagic  bool
	maxEntries   uint32
	progress     ProgressFunc
	logger       *slog.Logger
}

var errIsDir = errors.New("is a directory")

// Info holds the header scalars.
type Info struct {
	Magic     string
	Count     uint32
	Alignment uint32
	Reserved  uint32
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

func newArchive(opts []Option) *Archive {
	a := &Archive{
		strictMagic: true,
		dataSize:    -1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Archive) parseOptions() []header.Option {
	return []header.Option{
		header.WithMagicCheck(a.strictMagic),
		header.WithMaxEntries(a.maxEntries),
	}
}

// Open parses the header file at headerPath and pairs it with the data file
// at dataPath. The header is read fully; the data file is opened separately
// for every member extracted.
func Open(headerPath, dataPath string, opts ...Option) (*Archive, error) {
	a := newArchive(opts)

	table, err := header.Load(headerPath, a.parseOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load header %s: %w", headerPath, err)
	}
	info, err := os.Stat(dataPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: dataPath, Err: errIsDir}
	}

	a.table.Store(table)
	a.extractor = extract.NewExtractor(extract.FileOpener(dataPath))
	a.dataSize = info.Size()
	a.checkDataSize()
	a.log().Debug("opened archive",
		"header", headerPath,
		"data", dataPath,
		"members", table.Len(),
		"alignment", table.Alignment(),
	)
	return a, nil
}

// New creates an Archive from an in-memory header and a random-access data
// source. data must be safe for concurrent ReadAt calls when extracting with
// more than one worker. If data has a Size() int64 method, it is used to
// warn about data files shorter than the header implies.
func New(headerData []byte, data io.ReaderAt, opts ...Option) (*Archive, error) {
	a := newArchive(opts)

	table, err := header.Decode(headerData, a.parseOptions()...)
	if err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}

	a.table.Store(table)
	a.extractor = extract.NewExtractor(extract.ReaderAtOpener(data))
	if sized, ok := data.(interface{ Size() int64 }); ok {
		a.dataSize = sized.Size()
		a.checkDataSize()
	}
	return a, nil
}

func (a *Archive) checkDataSize() {
	want := a.current().DataSize()
	if a.dataSize >= 0 && uint64(a.dataSize) < want {
		a.log().Warn("data file shorter than header implies; trailing members will fail",
			"size", a.dataSize,
			"expected", want,
		)
	}
}

func (a *Archive) current() *header.Table {
	return a.table.Load()
}

// Info returns the header scalars.
func (a *Archive) Info() Info {
	t := a.current()
	magic := t.Magic()
	return Info{
		Magic:     string(magic[:]),
		Count:     t.Count(),
		Alignment: t.Alignment(),
		Reserved:  t.Reserved(),
	}
}

// Len returns the number of members.
func (a *Archive) Len() int {
	return a.current().Len()
}

// DataSize returns the size of the data source, or -1 if unknown.
func (a *Archive) DataSize() int64 {
	return a.dataSize
}

// Descriptors returns a snapshot of all descriptors in on-disk order.
func (a *Archive) Descriptors() []Descriptor {
	return a.current().Descriptors()
}

// All iterates a snapshot of the descriptors in on-disk order.
func (a *Archive) All() iter.Seq2[int, Descriptor] {
	return a.current().All()
}

// Resolved returns the number of members that carry a name.
func (a *Archive) Resolved() int {
	return a.current().Resolved()
}

// MarshalHeader encodes the current table in the header file layout.
func (a *Archive) MarshalHeader() ([]byte, error) {
	return a.current().MarshalBinary()
}

// FindByName returns the first member, in on-disk order, whose filename hash
// matches name. On a match the name is attached to the member, so later
// listings and extractions use it.
func (a *Archive) FindByName(name string) (Descriptor, bool) {
	for {
		t := a.current()
		i, ok := t.Lookup(name)
		if !ok {
			return Descriptor{}, false
		}
		next := t.WithName(i, name)
		if next == t || a.table.CompareAndSwap(t, next) {
			return next.At(i), true
		}
	}
}

// SupplyFilenames attaches names to every member whose hash matches one of
// candidates and returns the number of members matched. When candidates
// share a hash, the last one wins. Supplying the same list twice is idempotent.
func (a *Archive) SupplyFilenames(candidates []string) int {
	a.log().Debug("supplying filenames", "count", len(candidates))

	var matched int
	for {
		t := a.current()
		var next *header.Table
		next, matched = t.WithNames(candidates)
		if next == t || a.table.CompareAndSwap(t, next) {
			break
		}
	}

	if a.progress != nil {
		a.progress(ProgressEvent{
			Stage:      StageResolving,
			FilesDone:  matched,
			FilesTotal: len(candidates),
		})
	}
	a.log().Info("filenames supplied",
		"candidates", len(candidates),
		"matched", matched,
		"resolved", a.Resolved(),
		"members", a.Len(),
	)
	return matched
}
