package tracker

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vshulcz/Perfwatch/internal/buffers"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// MemoryConfig holds the memory sampler thresholds.
type MemoryConfig struct {
	HistorySize      int
	WarnMB           float64
	CriticalMB       float64
	LeakWindow       int
	LeakMinIncreases int
}

// DefaultMemoryConfig returns 120 samples of history, 400/600 MB tiers and a 7-of-9 leak rule.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		HistorySize:      120,
		WarnMB:           400,
		CriticalMB:       600,
		LeakWindow:       10,
		LeakMinIncreases: 7,
	}
}

// Memory ingests periodic memory samples and runs a trend-based leak heuristic.
type Memory struct {
	lifecycle
	deps
	sampler ports.MemorySampler
	history *buffers.Ring[domain.MemorySample]
	cfg     MemoryConfig
	current float64
	peak    float64
	leaking bool
}

// NewMemory returns a stopped sampler. sampler may be nil when samples are pushed.
func NewMemory(cfg MemoryConfig, sampler ports.MemorySampler, now func() time.Time, emit Emit) *Memory {
	def := DefaultMemoryConfig()
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.LeakWindow < 2 {
		cfg.LeakWindow = def.LeakWindow
	}
	if cfg.LeakMinIncreases <= 0 {
		cfg.LeakMinIncreases = def.LeakMinIncreases
	}
	if cfg.WarnMB <= 0 {
		cfg.WarnMB = def.WarnMB
	}
	if cfg.CriticalMB <= 0 {
		cfg.CriticalMB = def.CriticalMB
	}
	return &Memory{
		deps:    newDeps(now, emit),
		sampler: sampler,
		cfg:     cfg,
		history: buffers.NewRing[domain.MemorySample](cfg.HistorySize),
	}
}

// Tick queries the sampler and ingests the result. A failing or missing sampler ingests
// nothing; the error is returned for logging only.
func (m *Memory) Tick(ctx context.Context) error {
	if !m.IsTracking() {
		return nil
	}
	mb, err := m.Sample(ctx)
	if err != nil {
		return err
	}
	m.IngestSample(mb)
	return nil
}

// Sample queries the sampler without touching tracker state, so it may run outside the
// caller's lock. A panicking sampler is reported as an error.
func (m *Memory) Sample(ctx context.Context) (mb float64, err error) {
	if m.sampler == nil {
		return 0, domain.ErrNotConfigured
	}
	defer func() {
		if r := recover(); r != nil {
			mb, err = 0, fmt.Errorf("sample memory: sampler panicked: %v", r)
		}
	}()
	mb, err = m.sampler.SampleMB(ctx)
	if err != nil {
		return 0, fmt.Errorf("sample memory: %w", err)
	}
	return mb, nil
}

// IngestSample records one reading. NaN and Inf are ignored, negative values clamp to zero.
func (m *Memory) IngestSample(mb float64) {
	if !m.IsTracking() || math.IsNaN(mb) || math.IsInf(mb, 0) {
		return
	}
	mb = max(mb, 0)
	now := m.now()

	m.current = mb
	m.peak = max(m.peak, mb)
	m.history.Push(domain.MemorySample{UsageMB: mb, Timestamp: now})
	m.leaking = m.detectLeak()

	switch {
	case mb > m.cfg.CriticalMB:
		m.warn(domain.WarnHighMemory, domain.SeverityCritical, "",
			fmt.Sprintf("memory usage %.1f MB exceeds %.0f MB", mb, m.cfg.CriticalMB),
			"Release caches and large buffers that are no longer displayed.")
	case mb > m.cfg.WarnMB:
		m.warn(domain.WarnHighMemory, domain.SeverityWarning, "",
			fmt.Sprintf("memory usage %.1f MB exceeds %.0f MB", mb, m.cfg.WarnMB),
			"Check image and list caches for unbounded growth.")
	}
	if m.leaking {
		m.warn(domain.WarnMemoryLeak, domain.SeverityWarning, "",
			fmt.Sprintf("memory grew in most of the last %d samples (now %.1f MB)", m.cfg.LeakWindow, mb),
			"Look for listeners, timers or controllers that are never disposed.")
	}
}

// detectLeak reports whether at least LeakMinIncreases of the pairwise steps across the
// last LeakWindow samples are increases.
func (m *Memory) detectLeak() bool {
	last := m.history.Last(m.cfg.LeakWindow)
	if len(last) < m.cfg.LeakWindow {
		return false
	}
	increases := 0
	for i := 1; i < len(last); i++ {
		if last[i].UsageMB > last[i-1].UsageMB {
			increases++
		}
	}
	return increases >= m.cfg.LeakMinIncreases
}

// Current is the latest sample in MB.
func (m *Memory) Current() float64 { return m.current }

// Peak is the highest sample seen since the last Reset.
func (m *Memory) Peak() float64 { return m.peak }

// IsLeaking is the result of the leak heuristic at the latest sample.
func (m *Memory) IsLeaking() bool { return m.leaking }

// History returns the retained samples, oldest first.
func (m *Memory) History() []domain.MemorySample { return m.history.All() }

// Reset clears samples, peak and the leak flag.
func (m *Memory) Reset() {
	m.history.Clear()
	m.current = 0
	m.peak = 0
	m.leaking = false
}
