package taskcache

import (
	"sync"
	"time"
)

// memCache is a bounded in-process result cache. Expiry is lazy, checked on
// Get. When capacity is exceeded the entry with the oldest insertion time is
// evicted first (LRU by insertion, not access).
type memCache[V any] struct {
	mu       sync.RWMutex
	capacity int
	data     map[string]memEntry[V]
}

type memEntry[V any] struct {
	val V
	ins time.Time
	exp time.Time
}

func newMemCache[V any](capacity int) *memCache[V] {
	return &memCache[V]{capacity: capacity, data: make(map[string]memEntry[V])}
}

func (m *memCache[V]) Get(k string) (V, bool) {
	m.mu.RLock()
	e, ok := m.data[k]
	m.mu.RUnlock()
	if !ok || timeNow().After(e.exp) {
		var zero V
		return zero, false
	}
	return e.val, true
}

func (m *memCache[V]) Set(k string, v V, ttl time.Duration) {
	now := timeNow()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[k]; !exists && len(m.data) >= m.capacity {
		m.evictOldestLocked()
	}
	m.data[k] = memEntry[V]{val: v, ins: now, exp: now.Add(ttl)}
}

func (m *memCache[V]) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range m.data {
		if first || e.ins.Before(oldest) {
			oldestKey, oldest = k, e.ins
			first = false
		}
	}
	if !first {
		delete(m.data, oldestKey)
	}
}

func (m *memCache[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var timeNow = time.Now

// SetTimeNowFn overrides the clock for tests.
func SetTimeNowFn(f func() time.Time) { timeNow = f }

func RestoreTimeNow() { timeNow = time.Now }
