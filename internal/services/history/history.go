// Package history records periodic metric snapshots and classifies the FPS trend.
package history

import (
	"sync"

	"github.com/vshulcz/Perfwatch/internal/buffers"
	"github.com/vshulcz/Perfwatch/internal/domain"
)

// DefaultCapacity is the number of snapshots retained.
const DefaultCapacity = 1000

// trendDelta is the FPS change that counts as movement.
const trendDelta = 5.0

// Trend classifies the direction of the two newest snapshots.
type Trend string

const (
	Improving Trend = "improving"
	Declining Trend = "declining"
	Stable    Trend = "stable"
)

// Recorder keeps a bounded history of snapshots. It is safe for concurrent use.
type Recorder struct {
	buf *buffers.Ring[domain.MetricsSnapshot]
	mu  sync.RWMutex
}

// NewRecorder returns an empty recorder. capacity <= 0 selects DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{buf: buffers.NewRing[domain.MetricsSnapshot](capacity)}
}

// Record appends a copy of snap, evicting the oldest past capacity.
func (r *Recorder) Record(snap domain.MetricsSnapshot) {
	r.mu.Lock()
	r.buf.Push(snap.Clone())
	r.mu.Unlock()
}

// Snapshots returns the retained snapshots, oldest first.
func (r *Recorder) Snapshots() []domain.MetricsSnapshot {
	r.mu.RLock()
	all := r.buf.All()
	r.mu.RUnlock()
	for i := range all {
		all[i] = all[i].Clone()
	}
	return all
}

// Latest returns the newest snapshot, if any.
func (r *Recorder) Latest() (domain.MetricsSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.buf.Newest()
	return s.Clone(), ok
}

// Trend compares the FPS of the two newest snapshots.
func (r *Recorder) Trend() Trend {
	r.mu.RLock()
	last := r.buf.Last(2)
	r.mu.RUnlock()
	if len(last) < 2 {
		return Stable
	}
	switch d := last[1].FPS - last[0].FPS; {
	case d > trendDelta:
		return Improving
	case d < -trendDelta:
		return Declining
	default:
		return Stable
	}
}

// Len is the number of retained snapshots.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buf.Len()
}

// Reset drops every snapshot.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.buf.Clear()
	r.mu.Unlock()
}
