package arh

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	registrycache "github.com/meigma/arh/registry/cache"
	registrydisk "github.com/meigma/arh/registry/cache/disk"
	"github.com/meigma/arh/registry/oras"
)

// Option configures a Client.
type Option func(*Client) error

// Default cache limits for WithCacheDir.
const (
	DefaultHeaderCacheSize int64 = 256 << 20 // 256 MB
	DefaultRefCacheSize    int64 = 5 << 20   // 5 MB
	DefaultBlockCacheSize  int64 = 1 << 30   // 1 GB
	DefaultRefCacheTTL           = 5 * time.Minute
)

// --- Authentication Options ---

// WithDockerConfig reads credentials from ~/.docker/config.json and its
// credential helpers.
func WithDockerConfig() Option {
	return withORAS(oras.WithDockerConfig())
}

// WithStaticCredentials sets a username and password for registry (e.g. "ghcr.io").
func WithStaticCredentials(registry, username, password string) Option {
	return withORAS(oras.WithStaticCredentials(registry, username, password))
}

// WithStaticToken sets a bearer token for registry (e.g. "ghcr.io").
func WithStaticToken(registry, token string) Option {
	return withORAS(oras.WithStaticToken(registry, token))
}

// WithAnonymous forces anonymous access, ignoring any configured credentials.
func WithAnonymous() Option {
	return withORAS(oras.WithAnonymous())
}

// --- Transport Options ---

// WithPlainHTTP talks to registries over plain HTTP, for local development.
func WithPlainHTTP(enabled bool) Option {
	return withORAS(oras.WithPlainHTTP(enabled))
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return withORAS(oras.WithUserAgent(ua))
}

func withORAS(opt oras.Option) Option {
	return func(c *Client) error {
		c.orasOpts = append(c.orasOpts, opt)
		return nil
	}
}

// --- Caching Options ---

// WithCacheDir enables all caches with default limits under dir:
//   - dir/refs/    - tag→digest cache (5 MB, TTL from [WithRefCacheTTL])
//   - dir/headers/ - header blob cache (256 MB)
//   - dir/blocks/  - data blob block cache (1 GB)
func WithCacheDir(dir string) Option {
	return func(c *Client) error {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
		if err := WithRefCacheDir(filepath.Join(dir, "refs"))(c); err != nil {
			return err
		}
		if err := WithHeaderCacheDir(filepath.Join(dir, "headers"))(c); err != nil {
			return err
		}
		return WithBlockCacheDir(filepath.Join(dir, "blocks"))(c)
	}
}

// WithRefCacheDir enables tag-to-digest caching in dir.
// Set [WithRefCacheTTL] before this option to change the TTL.
func WithRefCacheDir(dir string) Option {
	return func(c *Client) error {
		cache, err := registrydisk.NewRefCache(dir,
			registrydisk.WithMaxBytes(DefaultRefCacheSize),
			registrydisk.WithRefCacheTTL(c.refCacheTTL),
		)
		if err != nil {
			return err
		}
		c.refCache = cache
		return nil
	}
}

// WithHeaderCacheDir enables header blob caching in dir.
func WithHeaderCacheDir(dir string) Option {
	return func(c *Client) error {
		cache, err := registrydisk.NewHeaderCache(dir, registrydisk.WithMaxBytes(DefaultHeaderCacheSize))
		if err != nil {
			return err
		}
		c.headerCache = cache
		return nil
	}
}

// WithBlockCacheDir enables block caching of data blob reads in dir.
func WithBlockCacheDir(dir string) Option {
	return func(c *Client) error {
		cache, err := registrydisk.NewBlockCache(dir, registrydisk.WithMaxBytes(DefaultBlockCacheSize))
		if err != nil {
			return err
		}
		c.blockCache = cache
		return nil
	}
}

// WithRefCacheTTL sets how long tag→digest mappings stay fresh. Zero
// disables expiry. It must precede [WithCacheDir] or [WithRefCacheDir].
func WithRefCacheTTL(ttl time.Duration) Option {
	return func(c *Client) error {
		if ttl < 0 {
			return errors.New("ref cache TTL must be non-negative")
		}
		c.refCacheTTL = ttl
		return nil
	}
}

// WithRefCache sets a custom reference cache.
func WithRefCache(cache registrycache.RefCache) Option {
	return func(c *Client) error {
		c.refCache = cache
		return nil
	}
}

// WithHeaderCache sets a custom header cache.
func WithHeaderCache(cache registrycache.HeaderCache) Option {
	return func(c *Client) error {
		c.headerCache = cache
		return nil
	}
}

// WithBlockCache sets a custom block cache for data blob reads.
func WithBlockCache(cache registrycache.BlockCache) Option {
	return func(c *Client) error {
		c.blockCache = cache
		return nil
	}
}

// --- Other Options ---

// WithArchiveOptions applies opts to every pulled Archive.
func WithArchiveOptions(opts ...ArchiveOption) Option {
	return func(c *Client) error {
		c.archiveOpts = append(c.archiveOpts, opts...)
		return nil
	}
}

// WithLogger sets the logger for the client and the archives it pulls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}
