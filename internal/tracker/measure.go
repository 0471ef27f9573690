package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

const (
	defaultMinInterval = 3 * time.Second
	escalationFactor   = 1.5
)

// DepthConfig holds tree limits and the analysis throttle. A negative MinInterval disables the throttle.
type DepthConfig struct {
	MaxDepth    int
	MaxNodes    int
	MinInterval time.Duration
}

// DefaultDepthConfig allows depth 30 and 5000 nodes, measured at most every 3s.
func DefaultDepthConfig() DepthConfig {
	return DepthConfig{MaxDepth: 30, MaxNodes: 5000, MinInterval: defaultMinInterval}
}

// Depth measures tree depth and size on demand, throttled.
type Depth struct {
	lifecycle
	deps
	walk     ports.TreeWalker
	last     domain.DepthMeasurement
	cfg      DepthConfig
	maxDepth int
	has      bool
}

// NewDepth returns a stopped depth tracker. walk may be nil when measurements are pushed.
func NewDepth(cfg DepthConfig, walk ports.TreeWalker, now func() time.Time, emit Emit) *Depth {
	def := DefaultDepthConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = def.MaxNodes
	}
	switch {
	case cfg.MinInterval == 0:
		cfg.MinInterval = def.MinInterval
	case cfg.MinInterval < 0:
		cfg.MinInterval = 0
	}
	return &Depth{deps: newDeps(now, emit), cfg: cfg, walk: walk}
}

// Measure runs the walk unless a measurement was taken within MinInterval, in which case
// the previous measurement is returned. A panicking walk yields the previous measurement.
func (d *Depth) Measure() (m domain.DepthMeasurement) {
	if !d.IsTracking() || d.walk == nil || d.throttled() {
		return d.last
	}
	defer func() {
		if recover() != nil {
			m = d.last
		}
	}()
	depth, nodes := d.walk()
	return d.record(depth, nodes)
}

// Record ingests a host-computed measurement under the same throttle as Measure.
func (d *Depth) Record(depth, nodes int) domain.DepthMeasurement {
	if !d.IsTracking() || d.throttled() {
		return d.last
	}
	return d.record(depth, nodes)
}

func (d *Depth) throttled() bool {
	return d.has && d.now().Sub(d.last.Timestamp) < d.cfg.MinInterval
}

func (d *Depth) record(depth, nodes int) domain.DepthMeasurement {
	m := domain.DepthMeasurement{Depth: max(depth, 0), NodeCount: max(nodes, 0), Timestamp: d.now()}
	d.last = m
	d.has = true
	d.maxDepth = max(d.maxDepth, m.Depth)

	if m.Depth > d.cfg.MaxDepth {
		d.warn(domain.WarnDeepTree,
			escalate(float64(m.Depth), float64(d.cfg.MaxDepth), escalationFactor), "",
			fmt.Sprintf("tree depth %d exceeds %d", m.Depth, d.cfg.MaxDepth),
			"Flatten nested layout wrappers and extract deeply nested subtrees into their own components.")
	}
	if m.NodeCount > d.cfg.MaxNodes {
		d.warn(domain.WarnLargeTree,
			escalate(float64(m.NodeCount), float64(d.cfg.MaxNodes), escalationFactor), "",
			fmt.Sprintf("tree has %d nodes, limit %d", m.NodeCount, d.cfg.MaxNodes),
			"Build long lists lazily so off-screen items are not part of the tree.")
	}
	return m
}

// Last is the most recent measurement.
func (d *Depth) Last() domain.DepthMeasurement { return d.last }

// MaxDepth is the deepest tree seen since the last Reset.
func (d *Depth) MaxDepth() int { return d.maxDepth }

// Reset forgets every measurement.
func (d *Depth) Reset() {
	d.last = domain.DepthMeasurement{}
	d.has = false
	d.maxDepth = 0
}

// SizeConfig holds the oversize limits and the per-key throttle.
type SizeConfig struct {
	MaxDimension      float64
	CriticalDimension float64
	MinInterval       time.Duration
}

// DefaultSizeConfig flags dimensions above 2000 units, critical above 3000, at most every 3s per key.
func DefaultSizeConfig() SizeConfig {
	return SizeConfig{MaxDimension: 2000, CriticalDimension: 3000, MinInterval: defaultMinInterval}
}

// Size tracks the laid-out size of keyed entities.
type Size struct {
	lifecycle
	deps
	latest map[string]domain.SizeMeasurement
	cfg    SizeConfig
}

// NewSize returns a stopped size tracker.
func NewSize(cfg SizeConfig, now func() time.Time, emit Emit) *Size {
	def := DefaultSizeConfig()
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = def.MaxDimension
	}
	if cfg.CriticalDimension <= cfg.MaxDimension {
		cfg.CriticalDimension = cfg.MaxDimension * escalationFactor
	}
	switch {
	case cfg.MinInterval == 0:
		cfg.MinInterval = def.MinInterval
	case cfg.MinInterval < 0:
		cfg.MinInterval = 0
	}
	return &Size{deps: newDeps(now, emit), cfg: cfg, latest: make(map[string]domain.SizeMeasurement)}
}

// Measure records the size of key. Calls for the same key within MinInterval return the
// previous measurement unchanged.
func (s *Size) Measure(key string, width, height float64) domain.SizeMeasurement {
	prev, seen := s.latest[key]
	if !s.IsTracking() || key == "" {
		return prev
	}
	now := s.now()
	if seen && now.Sub(prev.Timestamp) < s.cfg.MinInterval {
		return prev
	}
	m := domain.SizeMeasurement{Key: key, Width: max(width, 0), Height: max(height, 0), Timestamp: now}
	s.latest[key] = m

	if dim := m.MaxDimension(); dim > s.cfg.MaxDimension {
		sev := domain.SeverityWarning
		if dim > s.cfg.CriticalDimension {
			sev = domain.SeverityCritical
		}
		s.warn(domain.WarnOversizedWidget, sev, key,
			fmt.Sprintf("%s is %.0fx%.0f, larger than %.0f units", key, m.Width, m.Height, s.cfg.MaxDimension),
			"Constrain the widget or render it lazily instead of laying out content far beyond the viewport.")
	}
	return m
}

// Oversized returns the keys whose latest measurement exceeds MaxDimension, sorted.
func (s *Size) Oversized() []string {
	var out []string
	for k, m := range s.latest {
		if m.MaxDimension() > s.cfg.MaxDimension {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Latest returns the most recent measurement for key.
func (s *Size) Latest(key string) (domain.SizeMeasurement, bool) {
	m, ok := s.latest[key]
	return m, ok
}

// Reset forgets every measurement.
func (s *Size) Reset() { clear(s.latest) }
