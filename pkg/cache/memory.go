package cache

import (
	"strings"
	"sync"
	"time"
)

// entry is one cached payload in the local tier. The payload is kept in its
// encoded form so that handing it out never aliases caller-visible memory.
type entry struct {
	data     []byte
	storedAt time.Time
}

// memoryStore is the in-process fallback tier. It has no native expiry:
// get checks the entry age against the supplied TTL and deletes expired
// entries lazily. There is no background sweep.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *memoryStore) get(key string, ttl time.Duration) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().Sub(e.storedAt) >= ttl {
		delete(m.entries, key)
		return nil, false
	}
	return cloneBytes(e.data), true
}

func (m *memoryStore) set(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{
		data:     cloneBytes(data),
		storedAt: m.now(),
	}
}

func (m *memoryStore) clearPrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}

func (m *memoryStore) clearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// cloneBytes copies b so callers cannot mutate stored payloads.
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
