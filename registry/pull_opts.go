package registry

import (
	arh "github.com/meigma/arh/core"
)

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	skipCache bool
	archOpts  []arh.Option
	// maxHeaderSize limits how many bytes are read for the header blob.
	// A value <= 0 disables the limit.
	maxHeaderSize int64
	progress      arh.ProgressFunc
}

const defaultMaxHeaderSize = 64 << 20 // 64 MiB

// WithArchiveOptions passes options to the created Archive.
func WithArchiveOptions(opts ...arh.Option) PullOption {
	return func(cfg *pullConfig) {
		cfg.archOpts = append(cfg.archOpts, opts...)
	}
}

// WithMaxHeaderSize sets the maximum number of bytes allowed for the header
// blob. Use a value <= 0 to disable the limit.
func WithMaxHeaderSize(maxBytes int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxHeaderSize = maxBytes
	}
}

// WithPullSkipCache bypasses the ref and header caches.
func WithPullSkipCache() PullOption {
	return func(cfg *pullConfig) {
		cfg.skipCache = true
	}
}

// WithPullProgress sets a callback for manifest and header fetch progress.
func WithPullProgress(fn arh.ProgressFunc) PullOption {
	return func(cfg *pullConfig) {
		cfg.progress = fn
	}
}
