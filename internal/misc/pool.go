package misc

import (
	"bytes"
	"sync"
)

// DefaultMaxPooledBuffer is the largest buffer NewBufferPool keeps for reuse.
const DefaultMaxPooledBuffer = 1 << 20

// Pool recycles values of T. reset runs on Put, and values rejected by keep are dropped
// instead of pooled.
type Pool[T any] struct {
	p     sync.Pool
	reset func(T)
	keep  func(T) bool
}

// NewPool returns a pool built on newFn. reset and keep may be nil.
func NewPool[T any](newFn func() T, reset func(T), keep func(T) bool) *Pool[T] {
	pl := &Pool[T]{reset: reset, keep: keep}
	if newFn != nil {
		pl.p.New = func() any { return newFn() }
	}
	return pl
}

// Get returns a pooled value, or the zero value when the pool is empty and has no constructor.
func (pl *Pool[T]) Get() T {
	if v, ok := pl.p.Get().(T); ok {
		return v
	}
	var zero T
	return zero
}

// Put resets v and returns it to the pool unless keep rejects it.
func (pl *Pool[T]) Put(v T) {
	if pl.keep != nil && !pl.keep(v) {
		return
	}
	if pl.reset != nil {
		pl.reset(v)
	}
	pl.p.Put(v)
}

// NewBufferPool pools bytes.Buffers and drops any whose capacity grew past maxCap.
// maxCap <= 0 means DefaultMaxPooledBuffer.
func NewBufferPool(maxCap int) *Pool[*bytes.Buffer] {
	if maxCap <= 0 {
		maxCap = DefaultMaxPooledBuffer
	}
	return NewPool(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		(*bytes.Buffer).Reset,
		func(b *bytes.Buffer) bool { return b != nil && b.Cap() <= maxCap },
	)
}
