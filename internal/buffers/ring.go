// Package buffers provides fixed-capacity containers used by the trackers.
package buffers

// Ring is a fixed-capacity FIFO buffer. When full, each write evicts the oldest entry.
// It is not safe for concurrent use.
type Ring[T any] struct {
	entries    []T
	capacity   int
	head       int
	totalAdded int64
}

// NewRing returns an empty ring. Capacities below 1 are raised to 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{
		entries:  make([]T, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// Push appends v, evicting the oldest entry when the ring is full.
func (r *Ring[T]) Push(v T) {
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, v)
	} else {
		r.entries[r.head] = v
	}
	r.head = (r.head + 1) % r.capacity
	r.totalAdded++
}

// Len is the number of entries currently held.
func (r *Ring[T]) Len() int { return len(r.entries) }

// Cap is the configured capacity.
func (r *Ring[T]) Cap() int { return r.capacity }

// TotalAdded counts every Push since creation or the last Clear.
func (r *Ring[T]) TotalAdded() int64 { return r.totalAdded }

// All returns a copy of the entries, oldest first.
func (r *Ring[T]) All() []T {
	if len(r.entries) == 0 {
		return nil
	}
	out := make([]T, len(r.entries))
	if len(r.entries) < r.capacity {
		copy(out, r.entries)
		return out
	}
	n := copy(out, r.entries[r.head:])
	copy(out[n:], r.entries[:r.head])
	return out
}

// Last returns up to n newest entries, oldest first.
func (r *Ring[T]) Last(n int) []T {
	if n <= 0 || len(r.entries) == 0 {
		return nil
	}
	n = min(n, len(r.entries))
	out := make([]T, n)
	idx := (r.head - 1 + len(r.entries)) % len(r.entries)
	if len(r.entries) < r.capacity {
		idx = len(r.entries) - 1
	}
	for i := n - 1; i >= 0; i-- {
		out[i] = r.entries[idx]
		idx = (idx - 1 + len(r.entries)) % len(r.entries)
	}
	return out
}

// Newest returns the most recent entry.
func (r *Ring[T]) Newest() (T, bool) {
	var zero T
	if len(r.entries) == 0 {
		return zero, false
	}
	if len(r.entries) < r.capacity {
		return r.entries[len(r.entries)-1], true
	}
	return r.entries[(r.head-1+r.capacity)%r.capacity], true
}

// Clear drops every entry.
func (r *Ring[T]) Clear() {
	clear(r.entries)
	r.entries = r.entries[:0]
	r.head = 0
	r.totalAdded = 0
}
