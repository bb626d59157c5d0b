package taskcache

import (
	"context"
	"sync"
	"time"

	"lingodrill/internal/ports"

	log "github.com/sirupsen/logrus"
)

// Cache deduplicates expensive asynchronous computations by key. For a given
// key at most one producer runs in the process at a time; concurrent callers
// share the running computation's result. Successful results are kept in a
// bounded in-memory cache and, when a ResultStore is attached, mirrored to it.
//
// This is a process-local optimization, not a transactional lock: the
// at-most-once guarantee does not survive restarts or span processes, and
// callers must stay correct if a producer occasionally runs twice.
type Cache[V any] struct {
	mu       sync.Mutex
	inflight map[string]*call[V]

	mem        *memCache[V]
	store      ports.ResultStore
	codec      Codec[V]
	defaultTTL time.Duration
}

// call is the shared handle for one running computation. done is closed after
// val/err are set and the in-flight slot is removed.
type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

const DefaultCapacity = 1024

// New creates a memory-only cache. ttl is the default entry lifetime; pass
// capacity <= 0 for DefaultCapacity.
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[V]{
		inflight:   make(map[string]*call[V]),
		mem:        newMemCache[V](capacity),
		defaultTTL: ttl,
	}
}

// NewBacked creates a cache mirrored to a durable store. Store failures are
// fail-soft: a failed read is a miss, a failed write skips caching, and the
// producer's result is returned to the caller either way.
func NewBacked[V any](ttl time.Duration, capacity int, store ports.ResultStore, codec Codec[V]) *Cache[V] {
	c := New[V](ttl, capacity)
	c.store = store
	c.codec = codec
	return c
}

// GetOrCompute returns the cached value for key, or runs producer to obtain
// it. ttl <= 0 uses the cache default. If a computation for key is already in
// flight the caller waits for that computation instead of starting another.
//
// Producer errors propagate to every waiter and are never cached; the key's
// slot is freed so the next call retries. A waiter whose ctx is cancelled
// stops waiting with ctx.Err(), but the shared computation keeps running and
// still populates the cache for later callers.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (V, error)) (V, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if v, ok := c.mem.Get(key); ok {
		log.WithField("key", key).Debug("task cache hit (memory)")
		return v, nil
	}
	if v, ok := c.storeGet(ctx, key); ok {
		log.WithField("key", key).Debug("task cache hit (store)")
		c.mem.Set(key, v, ttl)
		return v, nil
	}

	c.mu.Lock()
	if running, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		log.WithField("key", key).Debug("awaiting in-flight computation")
		return c.wait(ctx, running)
	}
	cl := &call[V]{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	log.WithField("key", key).Debug("starting new computation")
	// The computation is detached from the starting caller's cancellation:
	// other waiters may depend on it.
	go c.run(context.WithoutCancel(ctx), key, ttl, cl, producer)

	return c.wait(ctx, cl)
}

func (c *Cache[V]) wait(ctx context.Context, cl *call[V]) (V, error) {
	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) run(ctx context.Context, key string, ttl time.Duration, cl *call[V], producer func(context.Context) (V, error)) {
	v, err := producer(ctx)
	if err == nil {
		c.mem.Set(key, v, ttl)
		c.storeSet(ctx, key, v, ttl)
	} else {
		log.WithError(err).WithField("key", key).Error("computation failed")
	}
	cl.val, cl.err = v, err

	// Free the slot before waking waiters so a retry after failure can start
	// a fresh computation immediately. The identity check keeps a slow
	// removal from evicting a newer call for the same key.
	c.mu.Lock()
	if cur, ok := c.inflight[key]; ok && cur == cl {
		delete(c.inflight, key)
	}
	c.mu.Unlock()
	close(cl.done)
}

func (c *Cache[V]) storeGet(ctx context.Context, key string) (V, bool) {
	var zero V
	if c.store == nil {
		return zero, false
	}
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("result store get failed; treating as miss")
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := c.codec.Unmarshal(b)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("cached result undecodable; treating as miss")
		return zero, false
	}
	return v, true
}

func (c *Cache[V]) storeSet(ctx context.Context, key string, v V, ttl time.Duration) {
	if c.store == nil {
		return
	}
	b, err := c.codec.Marshal(v)
	if err != nil {
		log.WithError(err).WithField("key", key).Error("result not serializable; not cached to store")
		return
	}
	if err := c.store.Set(ctx, key, b, ttl); err != nil {
		log.WithError(err).WithField("key", key).Warn("result store set failed; result not cached")
	}
}
