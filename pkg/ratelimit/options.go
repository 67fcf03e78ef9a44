package ratelimit

import (
	"log/slog"
	"time"

	"github.com/skanderkaroui/person-search-agent/pkg/metrics"
)

// DefaultPrefix is prepended to identities to form Redis keys.
const DefaultPrefix = "rate_limit:"

// Option configures a Limiter.
type Option func(*Limiter)

// WithPrefix sets the Redis key prefix. Useful when several applications
// share one Redis instance.
func WithPrefix(prefix string) Option {
	return func(l *Limiter) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithTimeout bounds each individual Redis operation with its own deadline.
// Zero (the default) leaves latency control entirely to the caller's context
// and the client's dial/read configuration.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Limiter) {
		l.timeout = timeout
	}
}

// WithRecorder injects a metrics backend. The default recorder discards
// everything.
func WithRecorder(r metrics.Recorder) Option {
	return func(l *Limiter) {
		if r != nil {
			l.recorder = r
		}
	}
}

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		if log != nil {
			l.log = log
		}
	}
}
