// Package observer provides a small generic fan-out primitive used for warning and frame listeners.
package observer

import (
	"context"
	"fmt"
	"sync"
)

// Observer defines the callback contract for receiving published events of type T.
type Observer[T any] interface {
	Notify(context.Context, T) error
}

// ObserverFunc adapts a standalone function into an Observer.
//
//revive:disable-next-line:exported
type ObserverFunc[T any] func(context.Context, T) error

// Notify executes the wrapped function.
func (f ObserverFunc[T]) Notify(ctx context.Context, evt T) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Publisher publishes events to downstream observers.
type Publisher[T any] interface {
	Publish(context.Context, T)
}

// ID identifies an attached observer. The zero ID is never issued.
type ID uint64

type entry[T any] struct {
	obs Observer[T]
	id  ID
}

// Subject coordinates observer registrations and event fan-out. Observers are notified
// synchronously, in attach order, outside the subject's lock.
type Subject[T any] struct {
	onError   func(error)
	observers []entry[T]
	mu        sync.RWMutex
	nextID    ID
}

// NewSubject constructs a Subject with optional initial observers.
func NewSubject[T any](observers ...Observer[T]) *Subject[T] {
	s := &Subject[T]{}
	for _, o := range observers {
		s.Attach(o)
	}
	return s
}

// Publish invokes every observer with the provided event. Observer errors and panics are
// passed to the error handler and do not stop the fan-out.
func (s *Subject[T]) Publish(ctx context.Context, evt T) {
	if s == nil {
		return
	}

	s.mu.RLock()
	observers := append([]entry[T](nil), s.observers...)
	errHandler := s.onError
	s.mu.RUnlock()

	for _, e := range observers {
		if err := notify(ctx, e.obs, evt); err != nil && errHandler != nil {
			errHandler(err)
		}
	}
}

func notify[T any](ctx context.Context, obs Observer[T], evt T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()
	return obs.Notify(ctx, evt)
}

// Attach registers an observer and returns the handle that detaches it. A nil observer is
// ignored and yields the zero ID.
func (s *Subject[T]) Attach(obs Observer[T]) ID {
	if s == nil || obs == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers = append(s.observers, entry[T]{obs: obs, id: s.nextID})
	return s.nextID
}

// Detach removes the observer registered under id and reports whether it was present.
func (s *Subject[T]) Detach(id ID) bool {
	if s == nil || id == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.observers {
		if e.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Len reports the number of attached observers.
func (s *Subject[T]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// SetErrorHandler configures a callback for observer failures.
func (s *Subject[T]) SetErrorHandler(fn func(error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}
