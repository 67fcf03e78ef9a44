// Package cache provides a TTL cache for expensive lookup results, backed
// primarily by a shared Redis instance and falling back to an in-process map
// whenever Redis cannot be reached.
//
// The primary entry point is the Store:
//
//	store := cache.New(client, cache.WithTTL(time.Hour))
//	if !store.Get(ctx, "Twitter", query, &results) {
//		results = expensiveLookup(query)
//		store.Set(ctx, "Twitter", query, results)
//	}
//
// # Overview
//
// Entries are addressed by (namespace, query). The namespace is a logical
// grouping such as a data source name ("Twitter", "Wikipedia") and supports
// bulk clearing; the query is hashed into the key by package cachekey.
// Values are opaque to the Store: they are JSON-encoded on Set and decoded
// into the caller's destination on Get, so callers always receive their own
// copy and can never mutate cached state in place.
//
// # Backends
//
// The Store manages two tiers with the same read/write surface:
//
//   - A remote tier on Redis, shared across processes. Redis enforces expiry
//     natively (SET with an expiration), so a value read from Redis is valid
//     by definition.
//
//   - A local in-process map, used both as a read fallback and as an
//     unconditional write mirror. The map has no native expiry; reads check
//     the stored-at timestamp against the Store TTL and delete expired
//     entries lazily.
//
// Every write goes to both tiers. A pre-existing Redis outage therefore does
// not turn into a silent cache-miss storm: the local mirror keeps serving
// until the outage ends.
//
// # Failure Policy
//
// Any Redis error during a read or write is recorded (counter
// "cache.fallback", plus a structured log line) and the operation falls
// through to the local tier for that single call. The next call attempts
// Redis again; there is no circuit breaker and no backoff. Callers never see
// a backend error: Get reports presence or absence, Set and Clear always
// succeed from the caller's point of view.
//
// A value that cannot be decoded is treated as a miss for that entry. The bad
// entry is bypassed, not repaired; it goes away when it expires or is
// overwritten.
//
// # Concurrency
//
// All Store methods are safe for concurrent use. The local map is guarded by
// a mutex; Redis provides its own atomicity for single-key operations. Fetch
// additionally collapses concurrent misses for the same key into a single
// loader call via singleflight.
//
// # Limitations
//
// The local tier is unbounded: expired entries are only reclaimed when read
// again or when Clear runs. With a high-cardinality query stream and no
// clears, memory grows for the lifetime of the process. This mirrors the
// bounded request volumes the layer was built for; put a cap in front of the
// Store if you need one.
package cache
