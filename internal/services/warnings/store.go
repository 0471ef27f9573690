// Package warnings holds the bounded warning store and its listener fan-out.
package warnings

import (
	"context"
	"sync"

	"github.com/vshulcz/Perfwatch/internal/buffers"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/pkg/observer"
)

// DefaultCapacity is the number of warnings retained before the oldest is evicted.
const DefaultCapacity = 200

// Listener receives every reported warning.
type Listener = observer.Observer[domain.Warning]

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc = observer.ObserverFunc[domain.Warning]

// ListenerID identifies a registered listener.
type ListenerID = observer.ID

// Store is a bounded FIFO of warnings. It is safe for concurrent use; listeners are invoked
// outside the store's lock so they may call back into it.
type Store struct {
	items   *buffers.Ring[domain.Warning]
	subject *observer.Subject[domain.Warning]
	mu      sync.RWMutex
}

// New returns an empty store. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		items:   buffers.NewRing[domain.Warning](capacity),
		subject: observer.NewSubject[domain.Warning](),
	}
}

// Report appends w, evicting the oldest warning past capacity, then notifies listeners
// synchronously in registration order.
func (s *Store) Report(ctx context.Context, w domain.Warning) {
	s.mu.Lock()
	s.items.Push(w)
	s.mu.Unlock()
	s.subject.Publish(ctx, w)
}

// AddListener registers fn and returns the handle RemoveListener takes.
func (s *Store) AddListener(fn func(domain.Warning)) ListenerID {
	if fn == nil {
		return 0
	}
	return s.subject.Attach(ListenerFunc(func(_ context.Context, w domain.Warning) error {
		fn(w)
		return nil
	}))
}

// Attach registers a context-aware listener whose errors go to the error handler.
func (s *Store) Attach(l Listener) ListenerID { return s.subject.Attach(l) }

// RemoveListener detaches the listener registered under id.
func (s *Store) RemoveListener(id ListenerID) bool { return s.subject.Detach(id) }

// SetErrorHandler receives listener errors and panics.
func (s *Store) SetErrorHandler(fn func(error)) { s.subject.SetErrorHandler(fn) }

// All returns the retained warnings, oldest first.
func (s *Store) All() []domain.Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.All()
}

// ByType returns the retained warnings of kind, oldest first.
func (s *Store) ByType(kind domain.WarningKind) []domain.Warning {
	return s.filter(func(w domain.Warning) bool { return w.Kind == kind })
}

// BySeverity returns the retained warnings of sev, oldest first.
func (s *Store) BySeverity(sev domain.Severity) []domain.Warning {
	return s.filter(func(w domain.Warning) bool { return w.Severity == sev })
}

func (s *Store) filter(keep func(domain.Warning) bool) []domain.Warning {
	var out []domain.Warning
	for _, w := range s.All() {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

// CriticalCount is the number of retained critical warnings.
func (s *Store) CriticalCount() int { return len(s.BySeverity(domain.SeverityCritical)) }

// InfoCount is the number of retained info warnings.
func (s *Store) InfoCount() int { return len(s.BySeverity(domain.SeverityInfo)) }

// CountByKind tallies the retained warnings per kind. Kinds with no warnings are absent.
func (s *Store) CountByKind() map[domain.WarningKind]int {
	out := make(map[domain.WarningKind]int)
	for _, w := range s.All() {
		out[w.Kind]++
	}
	return out
}

// Len is the number of retained warnings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

// Cap is the store capacity.
func (s *Store) Cap() int { return s.items.Cap() }

// Clear drops every retained warning. Listeners stay registered.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items.Clear()
	s.mu.Unlock()
}
