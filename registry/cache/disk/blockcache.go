package disk

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/arh/registry/cache"
)

// DefaultBlockSize is the block size used when WithBlockSize is not set.
const DefaultBlockSize int64 = 1 << 20

var _ cache.BlockCache = (*BlockCache)(nil)

// BlockCache implements cache.BlockCache on the local filesystem. Each block
// is one file named by sha256(source id, block size, block index).
type BlockCache struct {
	store   *store
	fetches singleflight.Group
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// BlockStats counts block lookups.
type BlockStats struct {
	// Hits is the number of blocks served from disk.
	Hits uint64

	// Misses is the number of blocks fetched from the wrapped source.
	Misses uint64
}

// NewBlockCache creates a block cache rooted at dir.
func NewBlockCache(dir string, opts ...Option) (*BlockCache, error) {
	s, err := newStore(dir, opts)
	if err != nil {
		return nil, err
	}
	if s.blockSize <= 0 {
		s.blockSize = DefaultBlockSize
	}
	return &BlockCache{store: s}, nil
}

// Wrap implements cache.BlockCache.
func (c *BlockCache) Wrap(src cache.Source) (cache.Source, error) {
	if src == nil {
		return nil, errors.New("block cache: source is nil")
	}
	id := src.SourceID()
	if id == "" {
		return nil, errors.New("block cache: source id is empty")
	}
	return &cachedSource{src: src, cache: c, id: id, size: src.Size(), held: -1}, nil
}

// Stats returns the hit and miss counts since the cache was created.
func (c *BlockCache) Stats() BlockStats {
	return BlockStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// BlockSize returns the size of a full block.
func (c *BlockCache) BlockSize() int64 {
	return c.store.blockSize
}

// MaxBytes implements cache.BlockCache.
func (c *BlockCache) MaxBytes() int64 {
	return c.store.maxBytes
}

// SizeBytes implements cache.BlockCache.
func (c *BlockCache) SizeBytes() int64 {
	return c.store.bytes.Load()
}

// Prune implements cache.BlockCache.
func (c *BlockCache) Prune(targetBytes int64) (int64, error) {
	return c.store.prune(targetBytes)
}

// block returns block index of the source identified by id, reading it from
// disk or fetching and storing it. Concurrent requests for one block share a
// single fetch.
func (c *BlockCache) block(id string, index, length int64, fetch func() ([]byte, error)) ([]byte, error) {
	key := blockKey(id, c.store.blockSize, index)
	v, err, _ := c.fetches.Do(key, func() (any, error) {
		if data, ok := c.store.read(key); ok {
			if int64(len(data)) == length {
				c.hits.Add(1)
				return data, nil
			}
			_ = c.store.remove(key) //nolint:errcheck // stale entry is refetched below
		}

		c.misses.Add(1)
		data, err := fetch()
		if err != nil {
			return nil, err
		}
		_ = c.store.write(key, data) //nolint:errcheck // a failed write only costs a refetch
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil //nolint:errcheck // v is always []byte when err is nil
}

func blockKey(id string, blockSize, index int64) string {
	h := sha256.New()
	h.Write([]byte(id))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(blockSize)) //nolint:gosec // block size is positive
	binary.BigEndian.PutUint64(buf[8:], uint64(index))     //nolint:gosec // index is never negative
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}

// cachedSource serves ReadAt from whole blocks. The most recent block is
// kept in memory since extraction reads each member front to back.
type cachedSource struct {
	src   cache.Source
	cache *BlockCache
	id    string
	size  int64

	mu   sync.Mutex
	held int64
	buf  []byte
}

// ReadAt implements io.ReaderAt.
func (s *cachedSource) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= s.size {
		return 0, io.EOF
	}

	want := min(int64(len(p)), s.size-off)
	blockSize := s.cache.store.blockSize

	var n int64
	for n < want {
		pos := off + n
		index := pos / blockSize
		data, err := s.blockAt(index)
		if err != nil {
			return int(n), err
		}
		n += int64(copy(p[n:want], data[pos-index*blockSize:]))
	}
	if want < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

func (s *cachedSource) blockAt(index int64) ([]byte, error) {
	s.mu.Lock()
	if s.held == index {
		data := s.buf
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()

	blockSize := s.cache.store.blockSize
	start := index * blockSize
	length := min(blockSize, s.size-start)
	data, err := s.cache.block(s.id, index, length, func() ([]byte, error) {
		buf := make([]byte, length)
		n, err := s.src.ReadAt(buf, start)
		if int64(n) == length {
			return buf, nil
		}
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.held, s.buf = index, data
	s.mu.Unlock()
	return data, nil
}

// Size implements cache.Source.
func (s *cachedSource) Size() int64 {
	return s.size
}

// SourceID implements cache.Source.
func (s *cachedSource) SourceID() string {
	return s.id
}
