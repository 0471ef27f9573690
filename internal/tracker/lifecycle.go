// Package tracker implements the bounded streaming trackers: sliding-window frequency counters,
// the memory sampler, frame timings, one-shot measurements and disposable resources.
//
// Trackers do no locking of their own. Callers serialize access, the telemetry context does it
// with a single coarse mutex.
package tracker

import (
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

// State is the lifecycle state of a tracker.
type State int

const (
	Stopped State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "stopped"
}

// Emit receives every warning a tracker raises.
type Emit func(domain.Warning)

// lifecycle is embedded by every tracker. Ingestion while Stopped is dropped, not queued.
type lifecycle struct {
	state State
}

// Start moves the tracker to Tracking. Calling it twice is a no-op.
func (l *lifecycle) Start() { l.state = Tracking }

// Stop moves the tracker to Stopped. Calling it twice is a no-op.
func (l *lifecycle) Stop() { l.state = Stopped }

// State reports the current lifecycle state.
func (l *lifecycle) State() State { return l.state }

// IsTracking reports whether ingestion is accepted.
func (l *lifecycle) IsTracking() bool { return l.state == Tracking }

// deps bundles the time source and warning sink shared by all trackers.
type deps struct {
	now  func() time.Time
	emit Emit
}

func newDeps(now func() time.Time, emit Emit) deps {
	if now == nil {
		now = time.Now
	}
	if emit == nil {
		emit = func(domain.Warning) {}
	}
	return deps{now: now, emit: emit}
}

func (d deps) warn(kind domain.WarningKind, sev domain.Severity, source, msg, suggestion string) {
	d.emit(domain.Warning{
		Timestamp:  d.now(),
		Message:    msg,
		Kind:       kind,
		Severity:   sev,
		Suggestion: suggestion,
		Source:     source,
	})
}

// escalate returns critical when value exceeds factor×limit, else warning.
func escalate(value, limit, factor float64) domain.Severity {
	if value > limit*factor {
		return domain.SeverityCritical
	}
	return domain.SeverityWarning
}
