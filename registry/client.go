package registry

import (
	"log/slog"

	"github.com/meigma/arh/registry/cache"
	"github.com/meigma/arh/registry/oras"
)

// Client pulls archives from OCI registries.
type Client struct {
	oci         OCIClient
	refCache    cache.RefCache
	headerCache cache.HeaderCache
	blockCache  cache.BlockCache
	logger      *slog.Logger

	// orasOpts configure the default ORAS client when no OCIClient is set.
	orasOpts []oras.Option
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New creates a registry client with the given options.
//
// Without WithOCIClient, an ORAS client is built from the pass-through
// options (WithPlainHTTP, WithDockerConfig, and so on).
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.oci == nil {
		c.oci = oras.New(c.orasOpts...)
	}
	return c
}
