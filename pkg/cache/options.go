package cache

import (
	"log/slog"
	"time"

	"github.com/skanderkaroui/person-search-agent/pkg/metrics"
)

// DefaultTTL is the entry lifetime used when no WithTTL option is given.
const DefaultTTL = time.Hour

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the entry lifetime for both tiers. It applies to the whole
// Store, not per entry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithTimeout bounds each individual Redis operation with its own deadline.
// Zero (the default) leaves latency control entirely to the caller's context
// and the client's dial/read configuration.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Store) {
		s.timeout = timeout
	}
}

// WithRecorder injects a metrics backend. The default recorder discards
// everything.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger used for degraded-mode and decode warnings.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}
