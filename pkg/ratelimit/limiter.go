package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skanderkaroui/person-search-agent/pkg/metrics"
)

// Limiter enforces a fixed-window request budget per identity.
//
// The zero value is not usable; construct with New. A Limiter built with a
// nil client runs in fallback-only mode and keeps all windows in process.
type Limiter struct {
	remote *redisLimiter // nil in fallback-only mode
	local  *memoryLimiter

	max      int
	span     time.Duration
	prefix   string
	timeout  time.Duration
	log      *slog.Logger
	recorder metrics.Recorder
}

// New constructs a Limiter admitting at most maxRequests per window of the
// given length. A nil client disables the remote backend (fallback-only
// mode).
//
// New never fails: if Redis is configured but unreachable at construction
// time the outage is logged and the remote backend is simply retried on
// every subsequent call.
func New(client *redis.Client, maxRequests int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		local:    newMemoryLimiter(),
		max:      maxRequests,
		span:     window,
		prefix:   DefaultPrefix,
		log:      slog.Default(),
		recorder: metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(l)
	}

	if client != nil {
		l.remote = newRedisLimiter(client, l.prefix)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.remote.ping(ctx); err != nil {
			l.log.Warn("ratelimit: redis unreachable at startup, will keep retrying per call", "err", err)
		}
	}
	return l
}

// Allow reports whether identity may make a request right now, counting it
// when admitted. A false return is a normal quota-exceeded outcome, never a
// backend error.
func (l *Limiter) Allow(ctx context.Context, identity string) bool {
	start := time.Now()
	defer func() {
		l.recorder.Observe("ratelimit.latency", time.Since(start).Seconds(), map[string]string{"op": "allow"})
	}()

	allowed, remote := l.check(ctx, identity)

	tags := map[string]string{"backend": backendTag(remote)}
	if allowed {
		l.recorder.Add("ratelimit.allow", 1, tags)
	} else {
		l.recorder.Add("ratelimit.deny", 1, tags)
	}
	return allowed
}

// Remaining reports how many requests identity may still make in its current
// window. It never counts as a request itself.
func (l *Limiter) Remaining(ctx context.Context, identity string) int {
	if l.remote != nil {
		opCtx, cancel := l.opContext(ctx)
		left, err := l.remote.remaining(opCtx, identity, l.max)
		cancel()
		if err == nil {
			return left
		}
		l.degrade("remaining", err)
	}
	return l.local.remaining(identity, l.max, l.span)
}

func (l *Limiter) check(ctx context.Context, identity string) (allowed, remote bool) {
	if l.remote != nil {
		opCtx, cancel := l.opContext(ctx)
		allowed, err := l.remote.allow(opCtx, identity, l.max, l.span)
		cancel()
		if err == nil {
			return allowed, true
		}
		l.degrade("allow", err)
	}
	return l.local.allow(identity, l.max, l.span), false
}

func (l *Limiter) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, l.timeout)
}

// degrade applies the shared failover policy: record that the remote backend
// was unusable for one operation and answer from the local windows. No state
// is kept; the very next call attempts Redis again.
func (l *Limiter) degrade(op string, err error) {
	l.recorder.Add("ratelimit.fallback", 1, map[string]string{"op": op})
	l.log.Warn("ratelimit: redis unavailable, using in-process fallback", "op", op, "err", err)
}

func backendTag(remote bool) string {
	if remote {
		return "redis"
	}
	return "memory"
}
