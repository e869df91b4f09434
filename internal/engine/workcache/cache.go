// Package workcache implements an at-most-once asynchronous memoizer whose
// entries survive cancellation of individual callers.
package workcache

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/sieve/internal/engine/deferred"
)

// abandonedError marks an entry rejected because the context of the caller that
// created it ended. It unwraps to the error compute returned.
type abandonedError struct{ cause error }

func (e *abandonedError) Error() string { return "abandoned: " + e.cause.Error() }
func (e *abandonedError) Unwrap() error { return e.cause }

func isAbandoned(err error) bool {
	var target *abandonedError
	return errors.As(err, &target)
}

// ComputeFunc produces the value for a key.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

// Cache maps keys to in-flight or completed computations.
//
// Each living entry runs its compute function exactly once and every caller of
// that entry shares the outcome. An entry whose creator's context ended before
// compute returned is evicted, so that callers which were not cancelled retry
// against a fresh entry instead of observing somebody else's cancellation.
// Errors compute returns while its context is live are shared like any other
// failure, even when they wrap context.Canceled or context.DeadlineExceeded.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*deferred.Deferred[V]
}

// New returns an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]*deferred.Deferred[V])}
}

// NewFrom returns a cache holding the same entries as prev. Pending and
// completed entries are shared, so work started against prev keeps running
// and becomes visible through both caches.
func NewFrom[K comparable, V any](prev *Cache[K, V]) *Cache[K, V] {
	c := New[K, V]()
	if prev == nil {
		return c
	}
	prev.mu.Lock()
	defer prev.mu.Unlock()
	for k, e := range prev.entries {
		c.entries[k] = e
	}
	return c
}

// GetOrCompute returns the value for key, starting compute if no entry exists.
//
// The entry is installed before compute starts, so compute may itself call
// GetOrCompute for the same key and observe the in-flight entry. compute runs
// with the context of the caller that created the entry.
func (c *Cache[K, V]) GetOrCompute(ctx context.Context, key K, compute ComputeFunc[V]) (V, error) {
	for {
		entry := c.getOrStart(ctx, key, compute)

		v, err := entry.Wait(ctx)
		if ctx.Err() != nil {
			var zero V
			return zero, ctx.Err()
		}
		if err != nil && isAbandoned(err) {
			// Cancelled on behalf of another caller.
			c.evict(key, entry)
			continue
		}
		return v, err
	}
}

func (c *Cache[K, V]) getOrStart(ctx context.Context, key K, compute ComputeFunc[V]) *deferred.Deferred[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		return entry
	}

	entry := deferred.New[V]()
	c.entries[key] = entry

	go func() {
		v, err := compute(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.evict(key, entry)
				err = &abandonedError{cause: err}
			}
			entry.Reject(err)
			return
		}
		entry.Resolve(v)
	}()

	return entry
}

// evict removes entry, leaving any newer entry for key in place.
func (c *Cache[K, V]) evict(key K, entry *deferred.Deferred[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[key] == entry {
		delete(c.entries, key)
	}
}

// Get returns the completed value for key. It reports false when there is no
// entry or the entry has not completed successfully.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	var zero V
	if !ok || !entry.Settled() {
		return zero, false
	}
	v, err := entry.Result()
	if err != nil {
		return zero, false
	}
	return v, true
}

// Await waits for the existing entry for key without starting any work.
// It reports false when there is no entry.
func (c *Cache[K, V]) Await(ctx context.Context, key K) (V, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok {
		var zero V
		return zero, false, nil
	}
	v, err := entry.Wait(ctx)
	return v, true, err
}

// PendingKeys returns the keys whose computation has not finished.
func (c *Cache[K, V]) PendingKeys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []K
	for k, e := range c.entries {
		if !e.Settled() {
			keys = append(keys, k)
		}
	}
	return keys
}

// Set installs a completed entry for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = deferred.Resolved(value)
}

// Has reports whether an entry exists for key, completed or not.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Delete removes the entry for key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the keys of all entries in no particular order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
