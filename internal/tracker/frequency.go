package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

const (
	defaultSoftSize   = 200
	defaultHardCap    = 500
	defaultPruneEvery = 50
)

// FrequencyConfig parameterizes a sliding-window event counter.
type FrequencyConfig struct {
	Kind       domain.WarningKind
	Verb       string
	Suggestion string
	Window     time.Duration
	Threshold  int
	SoftSize   int
	HardCap    int
	PruneEvery int
}

// RebuildConfig is the default configuration for rebuild counting.
func RebuildConfig(threshold int, window time.Duration) FrequencyConfig {
	return FrequencyConfig{
		Kind:       domain.WarnExcessiveRebuilds,
		Verb:       "rebuilt",
		Suggestion: "Split the widget so unchanged subtrees are not rebuilt, or cache children that do not depend on the changing state.",
		Window:     window,
		Threshold:  threshold,
	}
}

// SetStateConfig is the default configuration for setState counting.
func SetStateConfig(threshold int, window time.Duration) FrequencyConfig {
	return FrequencyConfig{
		Kind:       domain.WarnFrequentSetState,
		Verb:       "called setState",
		Suggestion: "Batch state updates or move fast-changing values into a dedicated notifier so fewer widgets rebuild.",
		Window:     window,
		Threshold:  threshold,
	}
}

func (c FrequencyConfig) withDefaults() FrequencyConfig {
	if c.Window <= 0 {
		c.Window = 2 * time.Second
	}
	if c.SoftSize <= 0 {
		c.SoftSize = defaultSoftSize
	}
	if c.HardCap <= 0 {
		c.HardCap = defaultHardCap
	}
	if c.HardCap < c.SoftSize {
		c.HardCap = c.SoftSize
	}
	if c.PruneEvery <= 0 {
		c.PruneEvery = defaultPruneEvery
	}
	if c.Verb == "" {
		c.Verb = "fired"
	}
	return c
}

type keyState struct {
	window []time.Time
	// consumed holds the timestamps cleared by earlier firings, so a burst that spans
	// several firings is still counted over the trailing window.
	consumed   []time.Time
	total      int
	order      int
	sincePrune int
}

// Frequency counts keyed events in a bounded sliding window and warns on bursts.
type Frequency struct {
	lifecycle
	deps
	keys  map[string]*keyState
	cfg   FrequencyConfig
	seq   int
	total int
}

// NewFrequency returns a stopped tracker.
func NewFrequency(cfg FrequencyConfig, now func() time.Time, emit Emit) *Frequency {
	return &Frequency{
		deps: newDeps(now, emit),
		cfg:  cfg.withDefaults(),
		keys: make(map[string]*keyState),
	}
}

// Config returns the effective configuration.
func (f *Frequency) Config() FrequencyConfig { return f.cfg }

// RecordEvent counts one event for key. It is a no-op unless the tracker is Tracking.
func (f *Frequency) RecordEvent(key string) {
	if !f.IsTracking() || key == "" {
		return
	}
	now := f.now()

	st, ok := f.keys[key]
	if !ok {
		st = &keyState{order: f.seq}
		f.seq++
		f.keys[key] = st
	}
	st.window = append(st.window, now)
	st.total++
	st.sincePrune++
	f.total++

	if len(st.window) > f.cfg.SoftSize || st.sincePrune >= f.cfg.PruneEvery {
		st.window = pruneBefore(st.window, now.Add(-f.cfg.Window))
		st.sincePrune = 0
	}
	if over := len(st.window) - f.cfg.HardCap; over > 0 {
		st.window = st.window[:copy(st.window, st.window[over:])]
	}

	if f.cfg.Threshold <= 0 {
		return
	}
	cutoff := now.Add(-f.cfg.Window)
	count := countSince(st.window, cutoff)
	if count < f.cfg.Threshold {
		return
	}
	st.consumed = pruneBefore(st.consumed, cutoff)
	f.fire(key, count+len(st.consumed))

	st.consumed = append(st.consumed, st.window[len(st.window)-count:]...)
	if over := len(st.consumed) - f.cfg.HardCap; over > 0 {
		st.consumed = st.consumed[:copy(st.consumed, st.consumed[over:])]
	}
	st.window = st.window[:0]
}

func (f *Frequency) fire(key string, burst int) {
	sev := domain.SeverityWarning
	if burst >= 2*f.cfg.Threshold {
		sev = domain.SeverityCritical
	}
	msg := fmt.Sprintf("%s %s %d times in %s", key, f.cfg.Verb, burst, f.cfg.Window)
	f.warn(f.cfg.Kind, sev, key, msg, f.cfg.Suggestion)
}

// Frequency is the number of events for key inside the trailing window per second of window.
func (f *Frequency) Frequency(key string) float64 {
	st, ok := f.keys[key]
	if !ok {
		return 0
	}
	n := countSince(st.window, f.now().Add(-f.cfg.Window))
	return float64(n) / f.cfg.Window.Seconds()
}

// WindowLen is the number of timestamps currently retained for key.
func (f *Frequency) WindowLen(key string) int {
	if st, ok := f.keys[key]; ok {
		return len(st.window)
	}
	return 0
}

// Count is the monotonic total for key.
func (f *Frequency) Count(key string) int {
	if st, ok := f.keys[key]; ok {
		return st.total
	}
	return 0
}

// TotalCount is the monotonic total across all keys.
func (f *Frequency) TotalCount() int { return f.total }

// Keys is the number of distinct keys seen.
func (f *Frequency) Keys() int { return len(f.keys) }

// TopN returns up to n keys by descending total. Equal totals keep first-seen order.
func (f *Frequency) TopN(n int) []domain.EntityCount {
	if n <= 0 || len(f.keys) == 0 {
		return nil
	}
	type row struct {
		key   string
		total int
		order int
	}
	rows := make([]row, 0, len(f.keys))
	for k, st := range f.keys {
		rows = append(rows, row{key: k, total: st.total, order: st.order})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].total == rows[j].total {
			return rows[i].order < rows[j].order
		}
		return rows[i].total > rows[j].total
	})
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]domain.EntityCount, n)
	for i := range n {
		out[i] = domain.EntityCount{Key: rows[i].key, Count: rows[i].total}
	}
	return out
}

// Reset clears every key and counter. The lifecycle state is untouched.
func (f *Frequency) Reset() {
	clear(f.keys)
	f.seq = 0
	f.total = 0
}

// countSince counts timestamps at or after cutoff. ts is ascending.
func countSince(ts []time.Time, cutoff time.Time) int {
	i := sort.Search(len(ts), func(i int) bool { return !ts[i].Before(cutoff) })
	return len(ts) - i
}

// pruneBefore drops timestamps older than cutoff in place.
func pruneBefore(ts []time.Time, cutoff time.Time) []time.Time {
	i := sort.Search(len(ts), func(i int) bool { return !ts[i].Before(cutoff) })
	if i == 0 {
		return ts
	}
	return ts[:copy(ts, ts[i:])]
}
