package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

type resourceState struct {
	since   time.Time
	flagged bool
}

// Resource tracks disposable resources and flags the ones that outlive MaxAge.
type Resource struct {
	lifecycle
	deps
	live     map[string]*resourceState
	maxAge   time.Duration
	disposed int
}

// NewResource returns a stopped tracker. maxAge defaults to one minute.
func NewResource(maxAge time.Duration, now func() time.Time, emit Emit) *Resource {
	if maxAge <= 0 {
		maxAge = time.Minute
	}
	return &Resource{deps: newDeps(now, emit), maxAge: maxAge, live: make(map[string]*resourceState)}
}

// Track registers key as alive. Tracking a live key again keeps its original age.
func (r *Resource) Track(key string) {
	if !r.IsTracking() || key == "" {
		return
	}
	if _, ok := r.live[key]; ok {
		return
	}
	r.live[key] = &resourceState{since: r.now()}
}

// Dispose forgets key.
func (r *Resource) Dispose(key string) {
	if !r.IsTracking() {
		return
	}
	if _, ok := r.live[key]; ok {
		delete(r.live, key)
		r.disposed++
	}
}

// Sweep warns once for every resource alive longer than MaxAge.
func (r *Resource) Sweep() {
	if !r.IsTracking() {
		return
	}
	now := r.now()
	keys := make([]string, 0, len(r.live))
	for k := range r.live {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		st := r.live[k]
		age := now.Sub(st.since)
		if st.flagged || age < r.maxAge {
			continue
		}
		st.flagged = true
		r.warn(domain.WarnUndisposedResource, domain.SeverityWarning, k,
			fmt.Sprintf("%s has not been disposed after %s", k, age.Truncate(time.Second)),
			"Dispose controllers, subscriptions and timers when their owner is removed.")
	}
}

// Undisposed returns the flagged resources, sorted.
func (r *Resource) Undisposed() []string {
	var out []string
	for k, st := range r.live {
		if st.flagged {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Live is the number of tracked, not yet disposed resources.
func (r *Resource) Live() int { return len(r.live) }

// Disposed counts Dispose calls that matched a live resource.
func (r *Resource) Disposed() int { return r.disposed }

// Reset forgets every resource.
func (r *Resource) Reset() {
	clear(r.live)
	r.disposed = 0
}
