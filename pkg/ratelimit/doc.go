// Package ratelimit provides fixed-window admission control per identity,
// backed primarily by a shared Redis instance and falling back to an
// in-process window map whenever Redis cannot be reached.
//
// The primary entry point is the Limiter:
//
//	limiter := ratelimit.New(client, 60, time.Minute)
//	if !limiter.Allow(ctx, clientIP) {
//		// reject or delay the request
//	}
//
// # Algorithm
//
// Each identity owns at most one window at a time. The first request creates
// a window with a count of one and is granted. Requests inside a live window
// are granted while the count is below the maximum, incrementing it; once the
// count reaches the maximum further requests are denied without touching the
// window. A request that arrives after the window has elapsed resets it to a
// fresh window counting that request.
//
// A denied request is a normal outcome, not an error: Allow returns false and
// the caller decides what to do with the traffic.
//
// # Backends
//
// On Redis the whole check-and-count step runs as one Lua script, so the
// decision is atomic across every process sharing the instance: N concurrent
// requests over the limit admit exactly the maximum, regardless of
// interleaving. The window boundary is enforced by Redis key expiry.
//
// The in-process fallback keeps the same state machine under a mutex. Its
// windows are scoped to one process, so during a Redis outage a multi-process
// deployment enforces the limit per process rather than globally. That is an
// accepted degradation: slightly too permissive beats unavailable.
//
// # Failure Policy
//
// Any Redis error is recorded (counter "ratelimit.fallback", plus a
// structured log line) and that single call is answered from the local
// windows. The next call attempts Redis again; no circuit breaker, no
// backoff. Callers only ever see true or false.
//
// # Concurrency
//
// Allow and Remaining are safe for concurrent use. Remaining never mutates
// window state in either backend.
package ratelimit
