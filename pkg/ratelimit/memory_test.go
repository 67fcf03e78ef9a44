package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLimiter_WindowBoundary(t *testing.T) {
	m := newMemoryLimiter()
	now := time.Now()
	m.now = func() time.Time { return now }

	// maxRequests=3: three grants, then a denial.
	for i := 0; i < 3; i++ {
		if !m.allow("ip1", 3, time.Minute) {
			t.Fatalf("Request %d should have been allowed", i+1)
		}
	}
	if m.allow("ip1", 3, time.Minute) {
		t.Fatal("Fourth request inside the window should be denied")
	}
	if left := m.remaining("ip1", 3, time.Minute); left != 0 {
		t.Errorf("Expected 0 remaining after exhaustion, got %d", left)
	}

	// Once the window elapses the identity starts fresh.
	now = now.Add(time.Minute)
	if !m.allow("ip1", 3, time.Minute) {
		t.Fatal("Request after window elapsed should be allowed")
	}
	if left := m.remaining("ip1", 3, time.Minute); left != 2 {
		t.Errorf("Expected maxRequests-1 remaining after reset, got %d", left)
	}
}

func TestMemoryLimiter_DenialDoesNotMutate(t *testing.T) {
	m := newMemoryLimiter()
	now := time.Now()
	m.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		m.allow("ip1", 2, time.Minute)
	}

	// Hammer the denied path; the window must not change underneath.
	for i := 0; i < 10; i++ {
		if m.allow("ip1", 2, time.Minute) {
			t.Fatal("Denied identity was re-admitted inside the window")
		}
	}

	w := m.windows["ip1"]
	if w.count != 2 {
		t.Errorf("Denials mutated the count to %d", w.count)
	}
}

func TestMemoryLimiter_RemainingIsNonMutating(t *testing.T) {
	m := newMemoryLimiter()

	if left := m.remaining("ip1", 5, time.Minute); left != 5 {
		t.Fatalf("Fresh identity should have full budget, got %d", left)
	}

	m.allow("ip1", 5, time.Minute)

	for i := 0; i < 10; i++ {
		if left := m.remaining("ip1", 5, time.Minute); left != 4 {
			t.Fatalf("Remaining changed on read %d: got %d", i, left)
		}
	}
}

func TestMemoryLimiter_IdentitiesAreIndependent(t *testing.T) {
	m := newMemoryLimiter()

	m.allow("ip1", 1, time.Minute)
	if m.allow("ip1", 1, time.Minute) {
		t.Fatal("ip1 should be exhausted")
	}
	if !m.allow("ip2", 1, time.Minute) {
		t.Fatal("ip2 must not be affected by ip1's window")
	}
}

// Race test: concurrent admissions must admit exactly max.
func TestMemoryLimiter_ConcurrentAdmission(t *testing.T) {
	m := newMemoryLimiter()

	const max = 10
	const callers = 100

	var admitted atomic.Int64
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			if m.allow("ip1", max, time.Minute) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if n := admitted.Load(); n != max {
		t.Errorf("Expected exactly %d admissions, got %d", max, n)
	}
}

func BenchmarkMemoryLimiter_Allow(b *testing.B) {
	m := newMemoryLimiter()

	for i := 0; i < b.N; i++ {
		m.allow("bench", 1<<30, time.Minute)
	}
}
