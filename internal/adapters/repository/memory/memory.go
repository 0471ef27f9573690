// Package memory implements an in-memory report store.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vshulcz/Perfwatch/internal/buffers"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// DefaultCapacity bounds the number of reports kept when no database is configured.
const DefaultCapacity = 100

// Repo keeps the most recent reports in a ring with coarse-grained RW locking.
type Repo struct {
	items *buffers.Ring[domain.StoredReport]
	now   func() time.Time
	mu    sync.RWMutex
}

var _ ports.ReportStore = (*Repo)(nil)

// New returns an empty store holding at most capacity reports.
func New(capacity int) *Repo {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Repo{items: buffers.NewRing[domain.StoredReport](capacity), now: time.Now}
}

// Save assigns a new ID and keeps the report, evicting the oldest past capacity.
func (r *Repo) Save(_ context.Context, rep domain.Report) (string, error) {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items.Push(domain.StoredReport{ID: id, SavedAt: r.now().UTC(), Report: cloneReport(rep)})
	return id, nil
}

// Get returns the report with the given ID or domain.ErrNotFound.
func (r *Repo) Get(_ context.Context, id string) (domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items.All() {
		if it.ID == id {
			return cloneReport(it.Report), nil
		}
	}
	return domain.Report{}, domain.ErrNotFound
}

// List returns up to limit reports, newest first. A non-positive limit returns all.
func (r *Repo) List(_ context.Context, limit int) ([]domain.StoredReport, error) {
	r.mu.RLock()
	all := r.items.All()
	r.mu.RUnlock()
	slices.Reverse(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	for i := range all {
		all[i].Report = cloneReport(all[i].Report)
	}
	return all, nil
}

// Ping reports that the in-memory store is not backed by a real database.
func (*Repo) Ping(context.Context) error {
	return domain.ErrNotConfigured
}

func cloneReport(r domain.Report) domain.Report {
	r.Warnings = slices.Clone(r.Warnings)
	return r
}
