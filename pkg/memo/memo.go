// Package memo provides an explicit compute-once map for session-scoped
// memoization.
//
// Components own their memo maps and receive them at construction; there is
// no hidden global state. Concurrent callers requesting the same key during
// first population block until the first computation completes and converge
// on the identical value.
package memo

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Map caches successful computations by key. Failed computations are not
// cached, so a transient error on first population does not poison the key.
type Map[V any] struct {
	group  singleflight.Group
	mu     sync.RWMutex
	values map[string]V
}

// New creates an empty Map.
func New[V any]() *Map[V] {
	return &Map[V]{values: make(map[string]V)}
}

// Do returns the cached value for key, computing it with compute on first
// use. At most one compute runs per key at a time; concurrent callers share
// its result.
func (m *Map[V]) Do(key string, compute func() (V, error)) (V, error) {
	m.mu.RLock()
	v, ok := m.values[key]
	m.mu.RUnlock()
	if ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (any, error) {
		// A racing caller may have stored the value between the fast path
		// and acquiring the flight.
		m.mu.RLock()
		v, ok := m.values[key]
		m.mu.RUnlock()
		if ok {
			return v, nil
		}

		v, err := compute()
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.values[key] = v
		m.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Get returns the cached value for key without computing.
func (m *Map[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of cached keys.
func (m *Map[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Forget drops the cached value for key, forcing the next Do to recompute.
func (m *Map[V]) Forget(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
}
