package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/skanderkaroui/person-search-agent/pkg/cachekey"
	"github.com/skanderkaroui/person-search-agent/pkg/metrics"
)

// Store is a dual-tier TTL cache keyed by (namespace, query).
//
// The zero value is not usable; construct with New. A Store built with a nil
// client runs in fallback-only mode and serves everything from the local
// tier.
type Store struct {
	remote *redisStore // nil in fallback-only mode
	local  *memoryStore

	ttl      time.Duration
	timeout  time.Duration
	log      *slog.Logger
	recorder metrics.Recorder

	flights singleflight.Group
}

// New constructs a Store on top of the given Redis client. A nil client
// disables the remote tier entirely (fallback-only mode).
//
// New never fails: if Redis is configured but unreachable at construction
// time the outage is logged and the remote tier is simply retried on every
// subsequent call.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		local:    newMemoryStore(),
		ttl:      DefaultTTL,
		log:      slog.Default(),
		recorder: metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if client != nil {
		s.remote = &redisStore{client: client}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.remote.ping(ctx); err != nil {
			s.log.Warn("cache: redis unreachable at startup, will keep retrying per call", "err", err)
		}
	}
	return s
}

// Get looks up the cached value for (namespace, query) and decodes it into
// dest. It reports whether a valid value was found.
//
// The remote tier is consulted first and is authoritative when reachable; on
// a remote miss or a remote failure the local tier is checked, including its
// own expiry test. A value that fails to decode counts as a miss.
func (s *Store) Get(ctx context.Context, namespace, query string, dest any) bool {
	start := time.Now()
	defer func() {
		s.recorder.Observe("cache.latency", time.Since(start).Seconds(), map[string]string{"op": "get"})
	}()

	key := cachekey.Derive(namespace, query)

	if s.remote != nil {
		data, found, err := s.remoteGet(ctx, key)
		switch {
		case err != nil:
			s.degrade("get", namespace, err)
		case found:
			if decodeErr := json.Unmarshal(data, dest); decodeErr != nil {
				s.recorder.Add("cache.decode_error", 1, map[string]string{"namespace": namespace})
				s.log.Warn("cache: discarding undecodable remote entry", "namespace", namespace, "err", decodeErr)
				break
			}
			s.recorder.Add("cache.hit", 1, map[string]string{"tier": "remote", "namespace": namespace})
			return true
		}
	}

	data, ok := s.local.get(key, s.ttl)
	if !ok {
		s.recorder.Add("cache.miss", 1, map[string]string{"namespace": namespace})
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		s.recorder.Add("cache.decode_error", 1, map[string]string{"namespace": namespace})
		s.log.Warn("cache: discarding undecodable local entry", "namespace", namespace, "err", err)
		return false
	}
	s.recorder.Add("cache.hit", 1, map[string]string{"tier": "local", "namespace": namespace})
	return true
}

// Set stores value under (namespace, query), overwriting any previous entry.
//
// The value is written to Redis with the Store TTL when the remote tier is
// configured, and unconditionally mirrored into the local tier so that a
// remote outage never produces a miss storm. Remote failures are logged and
// swallowed. A value that cannot be JSON-encoded is dropped.
func (s *Store) Set(ctx context.Context, namespace, query string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Error("cache: value is not serializable, not storing", "namespace", namespace, "err", err)
		return
	}

	key := cachekey.Derive(namespace, query)

	if s.remote != nil {
		if err := s.remoteSet(ctx, key, data); err != nil {
			s.degrade("set", namespace, err)
		}
	}
	s.local.set(key, data)
}

// Clear empties the cache in both tiers.
func (s *Store) Clear(ctx context.Context) {
	if s.remote != nil {
		if err := s.remoteClearAll(ctx); err != nil {
			s.degrade("clear", "", err)
		}
	}
	s.local.clearAll()
}

// ClearNamespace removes every entry in the given namespace from both tiers.
// Clearing a namespace that has no entries is a no-op.
func (s *Store) ClearNamespace(ctx context.Context, namespace string) {
	if s.remote != nil {
		if err := s.remoteClearPattern(ctx, cachekey.MatchPattern(namespace)); err != nil {
			s.degrade("clear", namespace, err)
		}
	}
	s.local.clearPrefix(cachekey.Prefix(namespace))
}

// Fetch returns the cached value for (namespace, query), running load on a
// miss and caching its result. Concurrent misses for the same key share a
// single load call.
//
// Unlike backend trouble, a load failure is the caller's own expensive
// operation failing, so it is returned as-is and nothing is cached.
func (s *Store) Fetch(ctx context.Context, namespace, query string, dest any, load func(ctx context.Context) (any, error)) error {
	if s.Get(ctx, namespace, query, dest) {
		return nil
	}

	key := cachekey.Derive(namespace, query)
	value, err, _ := s.flights.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, namespace, query, v)
		return v, nil
	})
	if err != nil {
		return err
	}

	// Round-trip through JSON so every waiter gets an independent copy.
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *Store) remoteGet(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.remote.get(ctx, key)
}

func (s *Store) remoteSet(ctx context.Context, key string, data []byte) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.remote.set(ctx, key, data, s.ttl)
}

func (s *Store) remoteClearAll(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.remote.clearAll(ctx)
}

func (s *Store) remoteClearPattern(ctx context.Context, pattern string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.remote.clearPattern(ctx, pattern)
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// degrade applies the shared failover policy: record that the remote tier was
// unusable for one operation and carry on with the local tier. No state is
// kept; the very next call attempts Redis again.
func (s *Store) degrade(op, namespace string, err error) {
	s.recorder.Add("cache.fallback", 1, map[string]string{"op": op})
	s.log.Warn("cache: redis unavailable, using in-process fallback",
		"op", op, "namespace", namespace, "err", err)
}
