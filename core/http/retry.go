package http //nolint:revive // intentional naming for domain clarity

import (
	"log/slog"
	nethttp "net/http"
	"time"

	rhttp "github.com/hashicorp/go-retryablehttp"
)

// DefaultRequestTimeout bounds a single request made by NewRetryClient.
const DefaultRequestTimeout = 30 * time.Second

// NewRetryClient returns an HTTP client that retries connection errors and
// 5xx/429 responses up to retryMax times with exponential backoff. A zero
// timeout uses DefaultRequestTimeout; a negative one disables the timeout.
// Retries are logged to logger at Debug and Warn; nil disables logging.
func NewRetryClient(retryMax int, timeout time.Duration, logger *slog.Logger) *nethttp.Client {
	client := rhttp.NewClient()
	client.RetryMax = max(retryMax, 0)
	client.Logger = nil
	if logger != nil {
		client.Logger = rhttp.LeveledLogger(logger)
	}

	std := client.StandardClient()
	switch {
	case timeout == 0:
		std.Timeout = DefaultRequestTimeout
	case timeout > 0:
		std.Timeout = timeout
	}
	return std
}
