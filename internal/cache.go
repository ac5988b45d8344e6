package internal

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CacheStatus is the lifecycle state of a cache entry
type CacheStatus string

const (
	CacheStatusPending CacheStatus = "pending"
	CacheStatusFresh   CacheStatus = "fresh"
	CacheStatusStale   CacheStatus = "stale"
	CacheStatusError   CacheStatus = "error"
)

// Key is a composite cache key, compared part by part
type Key []string

// ApplicationsKey scopes the application list
func ApplicationsKey() Key {
	return Key{"applications"}
}

// ApplicationKey scopes a single application
func ApplicationKey(id int64) Key {
	return Key{"application", strconv.FormatInt(id, 10)}
}

// NotesKey scopes the notes of one application
func NotesKey(applicationID int64) Key {
	return Key{"notes", strconv.FormatInt(applicationID, 10)}
}

// HasPrefix reports whether the first len(prefix) parts of k equal prefix
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}

// id is the map key; the unit separator cannot appear in key parts built by the constructors
func (k Key) id() string {
	return strings.Join(k, "\x1f")
}

// CacheEntry is a snapshot of one cached server response
type CacheEntry struct {
	Key       Key
	Data      interface{}
	Status    CacheStatus
	Err       error
	UpdatedAt time.Time
}

type cacheEntry struct {
	CacheEntry
	// generation is bumped by every invalidation; applied is the generation of
	// the flight whose data is currently held.
	generation uint64
	applied    uint64

	// flight is the sequence number of the fetch still running for this entry
	// (0 when none), started at flightGeneration.
	flight           uint64
	flightGeneration uint64
}

// QueryCache is a keyed, read-through cache of server state.
// Concurrent reads of one key share a single fetch; invalidation marks entries
// stale so the next read refetches.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	group   singleflight.Group
	flights uint64
	now     func() time.Time
}

// NewQueryCache creates an empty cache
func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Fetch returns the fresh value for key, calling fetch if the entry is missing,
// stale or failed. A fetch still running for the same entry and generation is
// joined instead of repeated. ctx only bounds the wait: the shared fetch runs
// with cancellation detached so one caller giving up does not fail the others.
func (c *QueryCache) Fetch(ctx context.Context, key Key, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	id := key.id()

	c.mu.Lock()
	e, ok := c.entries[id]
	if ok && e.Status == CacheStatusFresh {
		data := e.Data
		c.mu.Unlock()
		LogDebug("Cache hit %s", key)
		return data, nil
	}
	if !ok {
		e = &cacheEntry{CacheEntry: CacheEntry{Key: append(Key(nil), key...)}}
		c.entries[id] = e
	}
	e.Status = CacheStatusPending
	generation := e.generation
	if e.flight == 0 || e.flightGeneration != generation {
		c.flights++
		e.flight = c.flights
		e.flightGeneration = generation
	}
	flight := e.flight
	c.mu.Unlock()

	// Flight numbers are never reused, so a read cannot join a fetch that has
	// already settled.
	flightKey := id + "#" + strconv.FormatUint(flight, 10)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		LogDebug("Cache fetch %s (generation %d)", key, generation)
		data, err := fetch(context.WithoutCancel(ctx))
		c.settle(e, flight, generation, data, err)
		return data, err
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle applies a finished fetch. Results older than the data already held are
// dropped; results that raced an invalidation are kept but stay stale.
func (c *QueryCache) settle(e *cacheEntry, flight, generation uint64, data interface{}, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.flight == flight {
		e.flight = 0
	}
	if generation < e.applied {
		return
	}

	if err != nil {
		if generation == e.generation {
			e.Status = CacheStatusError
			e.Err = err
		}
		return
	}

	e.Data = data
	e.applied = generation
	e.UpdatedAt = c.now()
	switch {
	case generation == e.generation:
		e.Status = CacheStatusFresh
		e.Err = nil
	case e.Status != CacheStatusPending:
		e.Status = CacheStatusStale
	}
}

// Invalidate marks every entry whose key starts with prefix as stale and
// returns how many were marked.
func (c *QueryCache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, e := range c.entries {
		if !e.Key.HasPrefix(prefix) {
			continue
		}
		e.generation++
		e.Status = CacheStatusStale
		count++
	}
	LogDebug("Invalidated %d cache entr(ies) under %s", count, prefix)
	return count
}

// Get returns a snapshot of the entry for key
func (c *QueryCache) Get(key Key) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.id()]
	if !ok {
		return CacheEntry{}, false
	}
	return e.CacheEntry, true
}

// Keys returns the keys of all entries, sorted
func (c *QueryCache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		keys = append(keys, e.Key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].id() < keys[j].id()
	})
	return keys
}

// Len returns the number of entries
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Query is the typed form of Fetch
func Query[T any](ctx context.Context, c *QueryCache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	value, err := c.Fetch(ctx, key, func(ctx context.Context) (interface{}, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %s holds %T, not %T", key, value, zero)
	}
	return typed, nil
}
