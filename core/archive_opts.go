package arh

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for archive operations.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithProgress sets a callback that receives resolution and extraction progress.
// Calls are serialized.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Archive) {
		a.progress = fn
	}
}

// WithWorkers sets how many members are extracted concurrently by
// ExtractMany and ExtractAll. Values below 2 extract sequentially.
func WithWorkers(n int) Option {
	return func(a *Archive) {
		a.workers = n
	}
}

// WithAtomicWrites writes each member to a temporary file and renames it
// into place once fully copied. By default output files are written in place.
func WithAtomicWrites(enabled bool) Option {
	return func(a *Archive) {
		a.atomicWrites = enabled
	}
}

// WithStrictMagic controls whether headers whose magic is not "arh2" are
// rejected. Enabled by default.
func WithStrictMagic(enabled bool) Option {
	return func(a *Archive) {
		a.strictMagic = enabled
	}
}

// WithMaxEntries rejects headers declaring more than n members.
// Zero disables the limit.
func WithMaxEntries(n uint32) Option {
	return func(a *Archive) {
		a.maxEntries = n
	}
}
