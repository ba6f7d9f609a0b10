package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultStaleTime is how long a fetched value is served without a round-trip.
const DefaultStaleTime = 60 * time.Second

// FetchFunc loads the value for one cache key.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value        any
	fetchedAt    time.Time
	revalidating bool
}

// State describes one key, for diagnostics and tests.
type State struct {
	Cached       bool
	Stale        bool
	Revalidating bool
	FetchedAt    time.Time
}

// Cache is a keyed query cache with stale-while-revalidate reads.
//
// Fresh entries are returned as is. Entries older than the stale time are
// returned immediately while one background fetch refreshes them. Missing
// or invalidated entries block on a fetch. Concurrent fetches of a key are
// coalesced. A fetch is never cancelled by its caller; when the caller's
// context ends first the caller stops waiting and the result still lands.
// Results of fetches started before an Invalidate or Clear are dropped.
//
// Cached values are shared between callers and must not be mutated.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	gens      map[string]uint64 // per resource, bumped by Invalidate
	epoch     uint64            // bumped by Clear
	staleTime time.Duration
	now       func() time.Time

	group      singleflight.Group
	background sync.WaitGroup
}

type CacheOption func(*Cache)

func WithStaleTime(d time.Duration) CacheOption {
	return func(c *Cache) {
		c.staleTime = d
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:   make(map[string]*entry),
		gens:      make(map[string]uint64),
		staleTime: DefaultStaleTime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) StaleTime() time.Duration {
	return c.staleTime
}

// Get returns the value for key, calling fetch when needed.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		if c.now().Sub(e.fetchedAt) < c.staleTime {
			c.mu.Unlock()
			return e.value, nil
		}

		if !e.revalidating {
			e.revalidating = true
			flight := c.flightKeyLocked(key)
			c.background.Add(1)
			go c.revalidate(context.WithoutCancel(ctx), key, flight, fetch)
		}
		value := e.value
		c.mu.Unlock()
		return value, nil
	}
	flight := c.flightKeyLocked(key)
	c.mu.Unlock()

	ch := c.group.DoChan(flight, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, flight, fetch)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) revalidate(ctx context.Context, key, flight string, fetch FetchFunc) {
	defer c.background.Done()

	_, err, _ := c.group.Do(flight, func() (any, error) {
		return c.load(ctx, key, flight, fetch)
	})
	if err != nil {
		slog.Debug("cache revalidation failed", "key", key, "error", err)

		c.mu.Lock()
		if e, ok := c.entries[key]; ok {
			e.revalidating = false
		}
		c.mu.Unlock()
	}
}

// load runs fetch and stores the result unless the key was invalidated meanwhile.
func (c *Cache) load(ctx context.Context, key, flight string, fetch FetchFunc) (any, error) {
	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.flightKeyLocked(key) != flight {
		slog.Debug("cache dropped late result", "key", key)
		return value, nil
	}

	c.entries[key] = &entry{
		value:     value,
		fetchedAt: c.now(),
	}
	return value, nil
}

// flightKeyLocked names the current generation of key. Fetches started
// under an older name are not stored and are not joined by new readers.
func (c *Cache) flightKeyLocked(key string) string {
	return fmt.Sprintf("%d/%d/%s", c.epoch, c.gens[resourceOf(key)], key)
}

// Invalidate drops cached values so the next read fetches again. A bare
// resource such as "challenges" matches every key of that resource.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.gens[resourceOf(key)]++

		for existing := range c.entries {
			if existing == key || strings.HasPrefix(existing, key+"?") {
				delete(c.entries, existing)
			}
		}
	}
}

// Clear drops everything, e.g. on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.entries = make(map[string]*entry)
}

func (c *Cache) State(key string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return State{}
	}
	return State{
		Cached:       true,
		Stale:        c.now().Sub(e.fetchedAt) >= c.staleTime,
		Revalidating: e.revalidating,
		FetchedAt:    e.fetchedAt,
	}
}

// Wait blocks until background revalidations have finished.
func (c *Cache) Wait() {
	c.background.Wait()
}
