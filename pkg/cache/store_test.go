package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skanderkaroui/person-search-agent/pkg/cachekey"
)

// recorderStub captures metrics in memory for assertion.
type recorderStub struct {
	mu       sync.Mutex
	counters map[string]float64
	timings  map[string][]float64
}

func newRecorderStub() *recorderStub {
	return &recorderStub{
		counters: make(map[string]float64),
		timings:  make(map[string][]float64),
	}
}

func (r *recorderStub) Add(name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
}

func (r *recorderStub) Observe(name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings[name] = append(r.timings[name], value)
}

func (r *recorderStub) counter(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

type person struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// unreachableClient returns a client pointing at a port nothing listens on,
// with timeouts short enough to keep tests fast.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestStore_RoundTrip(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	want := person{Name: "grace hopper", Tags: []string{"navy", "cobol"}}
	store.Set(ctx, "Wikipedia", "grace hopper", want)

	var got person
	if !store.Get(ctx, "Wikipedia", "grace hopper", &got) {
		t.Fatal("Expected a hit immediately after Set")
	}
	if got.Name != want.Name || len(got.Tags) != 2 {
		t.Errorf("Round trip mangled the value: %+v", got)
	}
}

func TestStore_MissOnUnknownQuery(t *testing.T) {
	store := New(nil)

	var got person
	if store.Get(context.Background(), "Wikipedia", "nobody", &got) {
		t.Error("Expected a miss for a query that was never set")
	}
}

func TestStore_Expiry(t *testing.T) {
	store := New(nil, WithTTL(time.Hour))
	now := time.Now()
	store.local.now = func() time.Time { return now }
	ctx := context.Background()

	store.Set(ctx, "Twitter", "q", person{Name: "x"})

	var got person
	now = now.Add(59 * time.Minute)
	if !store.Get(ctx, "Twitter", "q", &got) {
		t.Fatal("Value expired before the TTL elapsed")
	}

	now = now.Add(time.Minute)
	if store.Get(ctx, "Twitter", "q", &got) {
		t.Fatal("Value survived past the TTL")
	}
}

func TestStore_Overwrite(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	store.Set(ctx, "Twitter", "q", person{Name: "old"})
	store.Set(ctx, "Twitter", "q", person{Name: "new"})

	var got person
	store.Get(ctx, "Twitter", "q", &got)
	if got.Name != "new" {
		t.Errorf("Expected overwrite, got %q", got.Name)
	}
}

func TestStore_NamespaceIsolation(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	store.Set(ctx, "Twitter", "q", person{Name: "tw"})
	store.Set(ctx, "Google", "q", person{Name: "go"})

	store.ClearNamespace(ctx, "Twitter")

	var got person
	if store.Get(ctx, "Twitter", "q", &got) {
		t.Error("Twitter entry should have been cleared")
	}
	if !store.Get(ctx, "Google", "q", &got) {
		t.Error("Google entry should have survived the Twitter clear")
	}
}

func TestStore_ClearNamespace_EmptyIsNoOp(t *testing.T) {
	store := New(nil)

	// Must not panic or disturb other namespaces.
	store.ClearNamespace(context.Background(), "Nothing")
}

func TestStore_ClearAll(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	store.Set(ctx, "Twitter", "q", person{Name: "tw"})
	store.Set(ctx, "Google", "q", person{Name: "go"})

	store.Clear(ctx)

	var got person
	if store.Get(ctx, "Twitter", "q", &got) || store.Get(ctx, "Google", "q", &got) {
		t.Error("Clear should empty every namespace")
	}
}

func TestStore_DecodeFailureIsMiss(t *testing.T) {
	rec := newRecorderStub()
	store := New(nil, WithRecorder(rec))

	// Plant a payload that cannot decode into person.
	store.local.set(cachekey.Derive("Twitter", "q"), []byte(`{"name":`))

	var got person
	if store.Get(context.Background(), "Twitter", "q", &got) {
		t.Fatal("Undecodable entry must read as a miss")
	}
	if rec.counter("cache.decode_error") != 1 {
		t.Errorf("Expected one decode_error metric, got %v", rec.counter("cache.decode_error"))
	}
}

func TestStore_FallbackWhenRedisUnreachable(t *testing.T) {
	rec := newRecorderStub()
	store := New(unreachableClient(), WithRecorder(rec))
	ctx := context.Background()

	want := person{Name: "fallback"}
	store.Set(ctx, "Twitter", "q", want)

	var got person
	if !store.Get(ctx, "Twitter", "q", &got) {
		t.Fatal("Set/Get must keep working through the local tier during an outage")
	}
	if got.Name != want.Name {
		t.Errorf("Fallback round trip mangled the value: %+v", got)
	}

	// One degradation per remote attempt: the Set and the Get.
	if rec.counter("cache.fallback") < 2 {
		t.Errorf("Expected fallback to be observable via metrics, counter = %v", rec.counter("cache.fallback"))
	}

	// Clear must also survive the outage.
	store.Clear(ctx)
	if store.Get(ctx, "Twitter", "q", &got) {
		t.Error("Clear should have emptied the local tier despite the outage")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Set(ctx, "Twitter", "shared", person{Name: "x"})
		}()
		go func() {
			defer wg.Done()
			var got person
			store.Get(ctx, "Twitter", "shared", &got)
		}()
	}
	wg.Wait()

	var got person
	if !store.Get(ctx, "Twitter", "shared", &got) {
		t.Error("Expected the value to be present after concurrent writes")
	}
}

func TestStore_Fetch_LoadsOncePerKey(t *testing.T) {
	store := New(nil)
	ctx := context.Background()

	var loads atomic.Int64
	load := func(ctx context.Context) (any, error) {
		loads.Add(1)
		time.Sleep(20 * time.Millisecond) // keep concurrent misses in flight together
		return person{Name: "loaded"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got person
			if err := store.Fetch(ctx, "Twitter", "q", &got, load); err != nil {
				t.Errorf("Fetch: %v", err)
			}
			if got.Name != "loaded" {
				t.Errorf("Fetch returned %+v", got)
			}
		}()
	}
	wg.Wait()

	if n := loads.Load(); n != 1 {
		t.Errorf("Expected a single load for concurrent misses, got %d", n)
	}

	// The result must now be cached: another Fetch does not load again.
	var got person
	if err := store.Fetch(ctx, "Twitter", "q", &got, load); err != nil {
		t.Fatalf("Fetch after populate: %v", err)
	}
	if loads.Load() != 1 {
		t.Error("Fetch hit the loader despite a cached value")
	}
}

func TestStore_Fetch_LoaderErrorPropagates(t *testing.T) {
	store := New(nil)
	boom := errors.New("scrape failed")

	var got person
	err := store.Fetch(context.Background(), "Twitter", "q", &got, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected loader error back, got %v", err)
	}

	if store.Get(context.Background(), "Twitter", "q", &got) {
		t.Error("A failed load must not leave anything in the cache")
	}
}
