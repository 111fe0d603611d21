package arh

import (
	"context"
	"log/slog"
	"time"

	arhcore "github.com/meigma/arh/core"
	"github.com/meigma/arh/registry"
	registrycache "github.com/meigma/arh/registry/cache"
	"github.com/meigma/arh/registry/oras"
)

// Client pulls archives from OCI registries with optional on-disk caching.
type Client struct {
	// orasOpts are options for the underlying ORAS client.
	orasOpts []oras.Option

	refCache    registrycache.RefCache    // tag→digest
	headerCache registrycache.HeaderCache // digest→header bytes
	blockCache  registrycache.BlockCache  // data blob blocks
	refCacheTTL time.Duration

	archiveOpts []ArchiveOption
	logger      *slog.Logger
}

// NewClient creates a client with the given options.
//
// Without credentials options, requests are anonymous.
// Use [WithDockerConfig] to read credentials from ~/.docker/config.json.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{refCacheTTL: DefaultRefCacheTTL}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func (c *Client) registry() *registry.Client {
	regOpts := []registry.Option{registry.WithORASOptions(c.orasOpts...)}
	if c.refCache != nil {
		regOpts = append(regOpts, registry.WithRefCache(c.refCache))
	}
	if c.headerCache != nil {
		regOpts = append(regOpts, registry.WithHeaderCache(c.headerCache))
	}
	if c.blockCache != nil {
		regOpts = append(regOpts, registry.WithBlockCache(c.blockCache))
	}
	if c.logger != nil {
		regOpts = append(regOpts, registry.WithLogger(c.logger))
	}
	return registry.New(regOpts...)
}

// Fetch returns the manifest of the archive at ref without downloading blobs.
func (c *Client) Fetch(ctx context.Context, ref string, opts ...FetchOption) (*registry.ArchiveManifest, error) {
	cfg := fetchConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var fetchOpts []registry.FetchOption
	if cfg.skipCache {
		fetchOpts = append(fetchOpts, registry.WithSkipCache())
	}
	return c.registry().Fetch(ctx, ref, fetchOpts...)
}

// Pull retrieves the archive at ref. Member data is read on demand with
// HTTP range requests against the registry.
func (c *Client) Pull(ctx context.Context, ref string, opts ...PullOption) (*Archive, error) {
	cfg := pullConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	c.log().Debug("pull", "ref", ref)

	archiveOpts := append([]ArchiveOption(nil), c.archiveOpts...)
	if c.logger != nil {
		archiveOpts = append(archiveOpts, arhcore.WithLogger(c.logger))
	}
	archiveOpts = append(archiveOpts, cfg.archiveOpts...)

	pullOpts := []registry.PullOption{registry.WithArchiveOptions(archiveOpts...)}
	if cfg.skipCache {
		pullOpts = append(pullOpts, registry.WithPullSkipCache())
	}
	if cfg.maxHeaderSize != 0 {
		pullOpts = append(pullOpts, registry.WithMaxHeaderSize(cfg.maxHeaderSize))
	}
	if cfg.progress != nil {
		pullOpts = append(pullOpts, registry.WithPullProgress(cfg.progress))
	}

	return c.registry().Pull(ctx, ref, pullOpts...)
}
