package ratelimit

import (
	"sync"
	"time"
)

// window is the per-identity fixed-window state.
type window struct {
	count int
	start time.Time
}

// memoryLimiter is the in-process fallback backend. Windows are created
// lazily and replaced in place when they elapse; there is no background
// sweep.
type memoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func newMemoryLimiter() *memoryLimiter {
	return &memoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// allow runs one admission check for identity. The mutex serializes
// concurrent checks so two callers can never both observe count < max and
// push the window past the limit.
func (m *memoryLimiter) allow(identity string, max int, span time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[identity]
	if !ok || now.Sub(w.start) >= span {
		m.windows[identity] = &window{count: 1, start: now}
		return true
	}
	if w.count < max {
		w.count++
		return true
	}
	// Denial leaves the window untouched.
	return false
}

// remaining reports how many requests identity may still make in the current
// window. It never mutates state.
func (m *memoryLimiter) remaining(identity string, max int, span time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[identity]
	if !ok || m.now().Sub(w.start) >= span {
		return max
	}
	if left := max - w.count; left > 0 {
		return left
	}
	return 0
}
