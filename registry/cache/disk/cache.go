// Package disk provides filesystem-backed implementations of the registry caches.
package disk

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/arh/registry/cache"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	defaultFilePerm       = 0o600
)

var (
	_ cache.RefCache    = (*RefCache)(nil)
	_ cache.HeaderCache = (*HeaderCache)(nil)
)

// Option configures a disk cache.
type Option func(*store)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *store) {
		s.shardPrefixLen = n
	}
}

// WithDirPerm sets the permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *store) {
		s.dirPerm = mode
	}
}

// WithMaxBytes sets the maximum cache size in bytes. Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(s *store) {
		s.maxBytes = n
	}
}

// WithRefCacheTTL expires reference mappings older than ttl. Zero keeps
// mappings until they are replaced. Only reference caches use the TTL.
func WithRefCacheTTL(ttl time.Duration) Option {
	return func(s *store) {
		s.ttl = ttl
	}
}

// WithBlockSize sets the block size of a block cache. Values <= 0 keep
// DefaultBlockSize. Only block caches use the block size.
func WithBlockSize(n int64) Option {
	return func(s *store) {
		s.blockSize = n
	}
}

// store is a sharded directory of small files keyed by hex names.
type store struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	maxBytes       int64
	ttl            time.Duration
	blockSize      int64
	bytes          atomic.Int64
	pruneMu        sync.Mutex
}

func newStore(dir string, opts []Option) (*store, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	s := &store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if s.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if s.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	size, err := dirSize(dir)
	if err != nil {
		return nil, err
	}
	s.bytes.Store(size)
	return s, nil
}

func (s *store) path(name string) string {
	if s.shardPrefixLen <= 0 {
		return filepath.Join(s.dir, name)
	}
	prefixLen := min(s.shardPrefixLen, len(name))
	return filepath.Join(s.dir, name[:prefixLen], name)
}

func (s *store) read(name string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, false
	}
	return data, true
}

// write stores data under name unless an entry already exists. Entries larger
// than the size limit are silently skipped.
func (s *store) write(name string, data []byte) error {
	path := s.path(name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	n := int64(len(data))
	if ok, err := s.ensureCapacity(n); err != nil || !ok {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "cache-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
		return err
	}
	s.bytes.Add(n)
	return nil
}

func (s *store) remove(name string) error {
	path := s.path(name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.bytes.Add(-info.Size())
	return nil
}

func (s *store) prune(targetBytes int64) (int64, error) {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	freed, remaining, err := pruneDir(s.dir, targetBytes)
	if err != nil {
		return 0, err
	}
	s.bytes.Store(remaining)
	return freed, nil
}

func (s *store) ensureCapacity(need int64) (bool, error) {
	if s.maxBytes <= 0 {
		return true, nil
	}
	if need > s.maxBytes {
		return false, nil
	}
	if s.bytes.Load()+need <= s.maxBytes {
		return true, nil
	}
	if _, err := s.prune(s.maxBytes - need); err != nil {
		return false, err
	}
	return s.bytes.Load()+need <= s.maxBytes, nil
}

// RefCache stores reference to digest mappings on disk.
// File names are the SHA-256 of the reference string.
type RefCache struct {
	store *store
}

// NewRefCache creates a reference cache rooted at dir.
func NewRefCache(dir string, opts ...Option) (*RefCache, error) {
	s, err := newStore(dir, opts)
	if err != nil {
		return nil, err
	}
	return &RefCache{store: s}, nil
}

func refKey(ref string) string {
	sum := sha256.Sum256([]byte(ref))
	return hex.EncodeToString(sum[:])
}

// GetDigest returns the cached digest for ref. Malformed and expired
// entries are misses.
func (c *RefCache) GetDigest(ref string) (string, bool) {
	key := refKey(ref)
	if c.store.ttl > 0 {
		info, err := os.Stat(c.store.path(key))
		if err != nil {
			return "", false
		}
		if time.Since(info.ModTime()) > c.store.ttl {
			_ = c.store.remove(key) //nolint:errcheck // expired entry, best-effort cleanup
			return "", false
		}
	}
	data, ok := c.store.read(key)
	if !ok {
		return "", false
	}
	d, err := digest.Parse(string(bytes.TrimSpace(data)))
	if err != nil {
		return "", false
	}
	return d.String(), true
}

// PutDigest records the digest for ref, replacing any previous mapping.
func (c *RefCache) PutDigest(ref, dgst string) error {
	if _, err := digest.Parse(dgst); err != nil {
		return fmt.Errorf("cache ref %q: %w", ref, err)
	}
	key := refKey(ref)
	if err := c.store.remove(key); err != nil {
		return err
	}
	return c.store.write(key, []byte(dgst))
}

// Delete removes the mapping for ref.
func (c *RefCache) Delete(ref string) error {
	return c.store.remove(refKey(ref))
}

// HeaderCache stores header blobs on disk keyed by content digest.
type HeaderCache struct {
	store *store
}

// NewHeaderCache creates a header cache rooted at dir.
func NewHeaderCache(dir string, opts ...Option) (*HeaderCache, error) {
	s, err := newStore(dir, opts)
	if err != nil {
		return nil, err
	}
	return &HeaderCache{store: s}, nil
}

func headerKey(dgst string) (digest.Digest, string, error) {
	d, err := digest.Parse(dgst)
	if err != nil {
		return "", "", err
	}
	return d, d.Encoded() + "." + d.Algorithm().String(), nil
}

// GetHeader returns the cached header for dgst. Entries whose content no
// longer matches the digest are removed and reported as misses.
func (c *HeaderCache) GetHeader(dgst string) ([]byte, bool) {
	d, key, err := headerKey(dgst)
	if err != nil {
		return nil, false
	}
	data, ok := c.store.read(key)
	if !ok {
		return nil, false
	}
	if d.Algorithm().FromBytes(data) != d {
		_ = c.store.remove(key) //nolint:errcheck // corrupt entry, best-effort cleanup
		return nil, false
	}
	return data, true
}

// PutHeader stores raw under dgst after checking that the digest matches.
func (c *HeaderCache) PutHeader(dgst string, raw []byte) error {
	d, key, err := headerKey(dgst)
	if err != nil {
		return err
	}
	if computed := d.Algorithm().FromBytes(raw); computed != d {
		return fmt.Errorf("cache header: digest mismatch: expected %s, got %s", d, computed)
	}
	return c.store.write(key, raw)
}

// Delete removes the header cached under dgst.
func (c *HeaderCache) Delete(dgst string) error {
	_, key, err := headerKey(dgst)
	if err != nil {
		return err
	}
	return c.store.remove(key)
}

// MaxBytes returns the configured size limit (0 = unlimited).
func (c *HeaderCache) MaxBytes() int64 {
	return c.store.maxBytes
}

// SizeBytes returns the current size of cached headers.
func (c *HeaderCache) SizeBytes() int64 {
	return c.store.bytes.Load()
}

// Prune removes the oldest headers until at most targetBytes remain.
func (c *HeaderCache) Prune(targetBytes int64) (int64, error) {
	return c.store.prune(targetBytes)
}
