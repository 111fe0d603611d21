package registry

import (
	"log/slog"

	"github.com/meigma/arh/registry/cache"
	"github.com/meigma/arh/registry/oras"
)

// Option configures a Client.
type Option func(*Client)

// WithOCIClient sets the low-level registry client. Pass-through ORAS
// options are ignored when this is set.
func WithOCIClient(oci OCIClient) Option {
	return func(c *Client) {
		c.oci = oci
	}
}

// WithLogger sets the logger for registry operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRefCache caches tag to manifest digest resolutions.
func WithRefCache(rc cache.RefCache) Option {
	return func(c *Client) {
		c.refCache = rc
	}
}

// WithHeaderCache caches header blobs by digest.
func WithHeaderCache(hc cache.HeaderCache) Option {
	return func(c *Client) {
		c.headerCache = hc
	}
}

// WithBlockCache serves data blob reads through bc.
func WithBlockCache(bc cache.BlockCache) Option {
	return func(c *Client) {
		c.blockCache = bc
	}
}

// WithDockerConfig reads credentials from ~/.docker/config.json.
func WithDockerConfig() Option {
	return withORAS(oras.WithDockerConfig())
}

// WithStaticCredentials authenticates to registry with a username and password.
func WithStaticCredentials(registry, username, password string) Option {
	return withORAS(oras.WithStaticCredentials(registry, username, password))
}

// WithStaticToken authenticates to registry with a bearer token.
func WithStaticToken(registry, token string) Option {
	return withORAS(oras.WithStaticToken(registry, token))
}

// WithAnonymous disables authentication.
func WithAnonymous() Option {
	return withORAS(oras.WithAnonymous())
}

// WithPlainHTTP talks to the registry over plain HTTP.
func WithPlainHTTP(enabled bool) Option {
	return withORAS(oras.WithPlainHTTP(enabled))
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) Option {
	return withORAS(oras.WithUserAgent(ua))
}

// WithORASOptions passes options straight to the default ORAS client.
func WithORASOptions(opts ...oras.Option) Option {
	return func(c *Client) {
		c.orasOpts = append(c.orasOpts, opts...)
	}
}

func withORAS(opt oras.Option) Option {
	return WithORASOptions(opt)
}
