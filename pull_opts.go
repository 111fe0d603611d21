package arh

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	skipCache     bool
	maxHeaderSize int64
	progress      ProgressFunc
	archiveOpts   []ArchiveOption
}

// PullWithSkipCache bypasses the ref and header caches.
func PullWithSkipCache() PullOption {
	return func(cfg *pullConfig) {
		cfg.skipCache = true
	}
}

// PullWithMaxHeaderSize caps the header blob size. Negative disables the
// limit; zero keeps the default of 64 MiB.
func PullWithMaxHeaderSize(maxBytes int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxHeaderSize = maxBytes
	}
}

// PullWithProgress receives manifest and header fetch progress.
func PullWithProgress(fn ProgressFunc) PullOption {
	return func(cfg *pullConfig) {
		cfg.progress = fn
	}
}

// PullWithArchiveOptions applies opts to the pulled Archive after the
// client-wide archive options.
func PullWithArchiveOptions(opts ...ArchiveOption) PullOption {
	return func(cfg *pullConfig) {
		cfg.archiveOpts = append(cfg.archiveOpts, opts...)
	}
}

// FetchOption configures a Fetch operation.
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	skipCache bool
}

// FetchWithSkipCache bypasses the ref cache.
func FetchWithSkipCache() FetchOption {
	return func(cfg *fetchConfig) {
		cfg.skipCache = true
	}
}
