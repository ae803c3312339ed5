// Package pool recycles the short-lived buffers of a parse: the scan state
// that holds the scope chain, and the name lists built for suggestions.
package pool

import "sync"

// Pool is a typed wrapper around sync.Pool. Objects are reset on Get, so a
// caller always receives a clean value no matter how it was returned.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T)
	keep  func(*T) bool
}

// NewPool creates a pool that builds new objects with factory
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{pool: sync.Pool{New: func() any { return factory() }}}
}

// NewPoolWithReset creates a pool that calls reset on every object it hands out
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Keep installs a filter consulted by Put. Objects it rejects are left to
// the garbage collector, which keeps oversized buffers out of the pool.
func (p *Pool[T]) Keep(fn func(*T) bool) *Pool[T] {
	p.keep = fn
	return p
}

// Get returns a reset object from the pool, or a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put hands obj back for reuse. nil is ignored.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil || (p.keep != nil && !p.keep(obj)) {
		return
	}
	p.pool.Put(obj)
}

// maxNamesCap bounds the capacity of name lists kept for reuse
const maxNamesCap = 256

var names = NewPoolWithReset(
	func() *[]string {
		s := make([]string, 0, 16)
		return &s
	},
	func(s *[]string) {
		clear(*s)
		*s = (*s)[:0]
	},
).Keep(func(s *[]string) bool { return cap(*s) <= maxNamesCap })

// GetStringSlice returns an empty name list
func GetStringSlice() *[]string {
	return names.Get()
}

// PutStringSlice returns a name list obtained from GetStringSlice
func PutStringSlice(s *[]string) {
	names.Put(s)
}
