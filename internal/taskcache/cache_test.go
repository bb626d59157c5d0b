package taskcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type CacheTestSuite struct {
	suite.Suite
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (s *CacheTestSuite) TearDownTest() {
	RestoreTimeNow()
}

func (s *CacheTestSuite) TestFreshResultReused() {
	c := New[string](time.Minute, 0)
	calls := 0
	producer := func(context.Context) (string, error) {
		calls++
		return "res", nil
	}
	v, err := c.GetOrCompute(context.Background(), "k", 0, producer)
	s.NoError(err)
	s.Equal("res", v)

	v, err = c.GetOrCompute(context.Background(), "k", 0, producer)
	s.NoError(err)
	s.Equal("res", v)
	s.Equal(1, calls)
}

func (s *CacheTestSuite) TestExpiredEntryRecomputed() {
	base := time.Now()
	now := base
	SetTimeNowFn(func() time.Time { return now })

	c := New[string](time.Minute, 0)
	calls := 0
	producer := func(context.Context) (string, error) {
		calls++
		return "res", nil
	}
	_, err := c.GetOrCompute(context.Background(), "k", 0, producer)
	s.NoError(err)

	now = base.Add(2 * time.Minute)
	_, err = c.GetOrCompute(context.Background(), "k", 0, producer)
	s.NoError(err)
	s.Equal(2, calls)
}

func (s *CacheTestSuite) TestConcurrentCallersShareOneComputation() {
	c := New[int](time.Minute, 0)
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	producer := func(context.Context) (int, error) {
		calls.Add(1)
		close(started)
		<-release
		return 42, nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrCompute(context.Background(), "k", 0, producer)
		}(i)
	}
	<-started
	close(release)
	wg.Wait()

	s.Equal(int32(1), calls.Load())
	for i := 0; i < n; i++ {
		s.NoError(errs[i])
		s.Equal(42, results[i])
	}
}

func (s *CacheTestSuite) TestErrorNotCachedAndRetried() {
	c := New[string](time.Minute, 0)
	calls := 0
	boom := errors.New("boom")
	_, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	s.ErrorIs(err, boom)

	v, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	s.NoError(err)
	s.Equal("ok", v)
	s.Equal(2, calls)
}

func (s *CacheTestSuite) TestCancelledWaiterDoesNotCancelComputation() {
	c := New[string](time.Minute, 0)
	release := make(chan struct{})
	producer := func(context.Context) (string, error) {
		<-release
		return "slow", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(ctx, "k", 0, producer)
		errCh <- err
	}()
	// Let the computation start, then abandon the waiter.
	time.Sleep(20 * time.Millisecond)
	cancel()
	s.ErrorIs(<-errCh, context.Canceled)

	close(release)
	// The detached computation still populates the cache.
	s.Eventually(func() bool {
		v, ok := c.mem.Get("k")
		return ok && v == "slow"
	}, time.Second, 10*time.Millisecond)
}

func (s *CacheTestSuite) TestCapacityEvictsOldestInsertion() {
	base := time.Now()
	now := base
	SetTimeNowFn(func() time.Time { return now })

	m := newMemCache[int](2)
	m.Set("a", 1, time.Hour)
	now = base.Add(time.Second)
	m.Set("b", 2, time.Hour)
	now = base.Add(2 * time.Second)
	m.Set("c", 3, time.Hour)

	_, ok := m.Get("a")
	s.False(ok)
	_, ok = m.Get("b")
	s.True(ok)
	_, ok = m.Get("c")
	s.True(ok)
	s.Equal(2, m.Len())
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	b, ok := f.data[key]
	return b, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = val
	f.setKeys = append(f.setKeys, key)
	return nil
}

func (s *CacheTestSuite) TestBackedCacheReadsFromStore() {
	store := newFakeStore()
	codec := JSONCodec[string]()
	b, err := codec.Marshal("durable")
	s.NoError(err)
	store.data["k"] = b

	c := NewBacked(time.Minute, 0, store, codec)
	v, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (string, error) {
		s.Fail("producer must not run on a store hit")
		return "", nil
	})
	s.NoError(err)
	s.Equal("durable", v)
}

func (s *CacheTestSuite) TestStoreFailuresAreSoft() {
	store := newFakeStore()
	store.getErr = errors.New("store down")
	store.setErr = errors.New("store down")

	c := NewBacked(time.Minute, 0, store, JSONCodec[string]())
	v, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (string, error) {
		return "computed", nil
	})
	s.NoError(err)
	s.Equal("computed", v)

	// Memory still serves the result despite the failed store write.
	got, ok := c.mem.Get("k")
	s.True(ok)
	s.Equal("computed", got)
}

func (s *CacheTestSuite) TestBackedCacheWritesThrough() {
	store := newFakeStore()
	c := NewBacked(time.Minute, 0, store, JSONCodec[string]())
	_, err := c.GetOrCompute(context.Background(), "k", 0, func(context.Context) (string, error) {
		return "computed", nil
	})
	s.NoError(err)
	s.Eventually(func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, ok := store.data["k"]
		return ok
	}, time.Second, 10*time.Millisecond)
}
