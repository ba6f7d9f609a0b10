package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func constant(value any, calls *atomic.Int32) FetchFunc {
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}
}

func TestCacheCoalescesConcurrentFetches(t *testing.T) {
	cache := NewCache()
	release := make(chan struct{})
	var calls atomic.Int32

	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "rewards", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := cache.Get(context.Background(), "rewards", fetch)
			assert.NoError(t, err)
			results[i] = value
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, value := range results {
		assert.Equal(t, "rewards", value)
	}
}

func TestCacheServesFreshValues(t *testing.T) {
	clock := newFakeClock()
	cache := NewCache(WithClock(clock.Now), WithStaleTime(time.Minute))
	var calls atomic.Int32

	_, err := cache.Get(context.Background(), "user/stats", constant("stats", &calls))
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	value, err := cache.Get(context.Background(), "user/stats", constant("other", &calls))
	require.NoError(t, err)

	assert.Equal(t, "stats", value)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheStaleWhileRevalidate(t *testing.T) {
	clock := newFakeClock()
	cache := NewCache(WithClock(clock.Now), WithStaleTime(time.Minute))
	var calls atomic.Int32

	_, err := cache.Get(context.Background(), "leaderboard", constant("v1", &calls))
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	release := make(chan struct{})
	refetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "v2", nil
	}

	value, err := cache.Get(context.Background(), "leaderboard", refetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", value, "stale value is returned without waiting")

	value, err = cache.Get(context.Background(), "leaderboard", refetch)
	require.NoError(t, err)
	assert.Equal(t, "v1", value)

	state := cache.State("leaderboard")
	assert.True(t, state.Stale)
	assert.True(t, state.Revalidating)

	close(release)
	cache.Wait()

	value, err = cache.Get(context.Background(), "leaderboard", refetch)
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
	assert.Equal(t, int32(2), calls.Load(), "one initial fetch and one revalidation")
	assert.False(t, cache.State("leaderboard").Stale)
}

func TestCacheFailedRevalidationKeepsStaleValue(t *testing.T) {
	clock := newFakeClock()
	cache := NewCache(WithClock(clock.Now), WithStaleTime(time.Minute))
	var calls atomic.Int32

	_, err := cache.Get(context.Background(), "rewards", constant("v1", &calls))
	require.NoError(t, err)
	clock.Advance(time.Hour)

	failing := func(context.Context) (any, error) {
		return nil, errors.New("offline")
	}
	value, err := cache.Get(context.Background(), "rewards", failing)
	require.NoError(t, err)
	cache.Wait()

	assert.Equal(t, "v1", value)
	state := cache.State("rewards")
	assert.True(t, state.Cached)
	assert.False(t, state.Revalidating)
}

func TestCacheFetchError(t *testing.T) {
	cache := NewCache()
	boom := errors.New("boom")

	_, err := cache.Get(context.Background(), "rewards", func(context.Context) (any, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, cache.State("rewards").Cached)
}

func TestCacheInvalidateByResource(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32
	ctx := context.Background()

	for _, key := range []string{
		Key(ResourceChallenges),
		Key(ResourceChallenges, "userId", "u1"),
		Key(ResourceRewards),
	} {
		_, err := cache.Get(ctx, key, constant(key, &calls))
		require.NoError(t, err)
	}

	cache.Invalidate(ResourceChallenges)

	assert.False(t, cache.State(Key(ResourceChallenges)).Cached)
	assert.False(t, cache.State(Key(ResourceChallenges, "userId", "u1")).Cached)
	assert.True(t, cache.State(Key(ResourceRewards)).Cached)

	_, err := cache.Get(ctx, Key(ResourceChallenges), constant("again", &calls))
	require.NoError(t, err)
	assert.Equal(t, int32(4), calls.Load())
}

func TestCacheInvalidateDoesNotMatchLongerResource(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32

	_, err := cache.Get(context.Background(), ResourceCurrentWeek, constant("week", &calls))
	require.NoError(t, err)

	cache.Invalidate(ResourceHistory)

	assert.True(t, cache.State(ResourceCurrentWeek).Cached)
}

func TestCacheDropsResultsOfInvalidatedFetches(t *testing.T) {
	cache := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan any)
	go func() {
		value, _ := cache.Get(context.Background(), "user/stats", func(context.Context) (any, error) {
			close(started)
			<-release
			return "before", nil
		})
		done <- value
	}()

	<-started
	cache.Invalidate("user/stats")

	var calls atomic.Int32
	value, err := cache.Get(context.Background(), "user/stats", constant("after", &calls))
	require.NoError(t, err)
	assert.Equal(t, "after", value, "new readers do not join the invalidated fetch")

	close(release)
	assert.Equal(t, "before", <-done, "the original caller still gets its result")

	value, err = cache.Get(context.Background(), "user/stats", constant("unused", &calls))
	require.NoError(t, err)
	assert.Equal(t, "after", value)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheClear(t *testing.T) {
	cache := NewCache()
	var calls atomic.Int32

	_, err := cache.Get(context.Background(), "rewards", constant("v1", &calls))
	require.NoError(t, err)

	cache.Clear()
	assert.False(t, cache.State("rewards").Cached)

	value, err := cache.Get(context.Background(), "rewards", constant("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestCacheCallerCancelDoesNotCancelFetch(t *testing.T) {
	cache := NewCache()
	started := make(chan struct{})
	release := make(chan struct{})
	var fetchCancelled atomic.Bool

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := cache.Get(ctx, "challenges", func(ctx context.Context) (any, error) {
			close(started)
			<-release
			fetchCancelled.Store(ctx.Err() != nil)
			return "loaded", nil
		})
		errc <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool {
		return cache.State("challenges").Cached
	}, time.Second, 5*time.Millisecond)
	assert.False(t, fetchCancelled.Load())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "rewards", Key(ResourceRewards))
	assert.Equal(t, "rewards", Key(ResourceRewards, "userId", ""))
	assert.Equal(t, "leaderboard?limit=5&userId=u1", Key(ResourceLeaderboard, "userId", "u1", "limit", "5"))
	assert.Equal(t,
		Key(ResourceLeaderboard, "limit", "5", "userId", "u1"),
		Key(ResourceLeaderboard, "userId", "u1", "limit", "5"),
		"parameter order does not change the key")
	assert.Equal(t, "commutes/current", resourceOf(Key(ResourceCurrentWeek, "userId", "u1")))
}
