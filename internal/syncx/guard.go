// Package syncx provides extended synchronization primitives
package syncx

import "sync"

// Guard owns a value behind a single RWMutex. All access goes through
// callbacks so no caller can hold a reference past the lock.
type Guard[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewGuard creates a guarded value.
func NewGuard[T any](initial T) *Guard[T] {
	return &Guard[T]{value: initial}
}

// Write executes fn while holding the write lock.
func (g *Guard[T]) Write(fn func(*T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.value)
}

// Get returns a copy of the value (T should be a value type or immutable).
func (g *Guard[T]) Get() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Set replaces the value.
func (g *Guard[T]) Set(v T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = v
}

// View runs fn under the read lock and returns its result.
func View[T, R any](g *Guard[T], fn func(*T) R) R {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(&g.value)
}

// Mutate runs fn under the write lock and returns its result.
func Mutate[T, R any](g *Guard[T], fn func(*T) R) R {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(&g.value)
}
