package tracker

import (
	"fmt"
	"time"

	"github.com/vshulcz/Perfwatch/internal/buffers"
	"github.com/vshulcz/Perfwatch/internal/domain"
)

// FrameConfig holds the frame timing windows and budget.
type FrameConfig struct {
	HistorySize   int
	JankThreshold time.Duration
	FPSWindow     time.Duration
	AverageWindow time.Duration
	JankBurst     int
	MaxFPS        float64
	InitialFPS    float64
}

// DefaultFrameConfig returns a 300-record history, a 16ms budget, a 1s FPS window and a 2s averaging window.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		HistorySize:   300,
		JankThreshold: 16 * time.Millisecond,
		FPSWindow:     time.Second,
		AverageWindow: 2 * time.Second,
		JankBurst:     2,
		MaxFPS:        120,
		InitialFPS:    60,
	}
}

// Frame ingests frame timing batches and derives FPS and jank.
type Frame struct {
	lifecycle
	deps
	history *buffers.Ring[domain.FrameTimingRecord]
	cfg     FrameConfig
	jank    int
	total   int
}

// NewFrame returns a stopped frame tracker.
func NewFrame(cfg FrameConfig, now func() time.Time, emit Emit) *Frame {
	def := DefaultFrameConfig()
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.JankThreshold <= 0 {
		cfg.JankThreshold = def.JankThreshold
	}
	if cfg.FPSWindow <= 0 {
		cfg.FPSWindow = def.FPSWindow
	}
	if cfg.AverageWindow <= 0 {
		cfg.AverageWindow = def.AverageWindow
	}
	if cfg.JankBurst <= 0 {
		cfg.JankBurst = def.JankBurst
	}
	if cfg.MaxFPS <= 0 {
		cfg.MaxFPS = def.MaxFPS
	}
	if cfg.InitialFPS <= 0 {
		cfg.InitialFPS = def.InitialFPS
	}
	return &Frame{
		deps:    newDeps(now, emit),
		cfg:     cfg,
		history: buffers.NewRing[domain.FrameTimingRecord](cfg.HistorySize),
	}
}

// Ingest records a batch and returns the normalized records that were accepted.
// Every jank frame emits a warning; frame warnings are not debounced.
func (f *Frame) Ingest(records []domain.FrameTimingRecord) []domain.FrameTimingRecord {
	if !f.IsTracking() || len(records) == 0 {
		return nil
	}
	now := f.now()
	accepted := make([]domain.FrameTimingRecord, 0, len(records))
	for _, r := range records {
		r = normalizeFrame(r, now)
		f.history.Push(r)
		f.total++
		accepted = append(accepted, r)

		if r.Total > f.cfg.JankThreshold {
			f.jank++
			f.warn(domain.WarnSlowFrame,
				escalate(float64(r.Total), float64(f.cfg.JankThreshold), 2),
				"",
				fmt.Sprintf("frame took %.1f ms (build %.1f ms, raster %.1f ms), budget %.1f ms",
					domain.DurationMs(r.Total), domain.DurationMs(r.Build), domain.DurationMs(r.Raster),
					domain.DurationMs(f.cfg.JankThreshold)),
				"Move heavy work off the build path and avoid expensive effects such as saveLayer or clipping.")
		}
	}
	return accepted
}

func normalizeFrame(r domain.FrameTimingRecord, now time.Time) domain.FrameTimingRecord {
	r.Build = max(r.Build, 0)
	r.Raster = max(r.Raster, 0)
	r.Total = max(r.Total, 0)
	if r.Total == 0 {
		r.Total = r.Build + r.Raster
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = now
	}
	return r
}

// CurrentFPS counts the retained frames inside the trailing FPS window as of now, capped at
// MaxFPS. It reports InitialFPS until the first frame arrives, and falls to zero once frames
// stop.
func (f *Frame) CurrentFPS() float64 {
	if f.history.Len() == 0 {
		return f.cfg.InitialFPS
	}
	cutoff := f.now().Add(-f.cfg.FPSWindow)
	n := 0
	for _, r := range f.history.All() {
		if !r.Timestamp.Before(cutoff) {
			n++
		}
	}
	return min(float64(n), f.cfg.MaxFPS)
}

// JankCount is the total number of jank frames since the last Reset.
func (f *Frame) JankCount() int { return f.jank }

// TotalFrames is the number of accepted records since the last Reset.
func (f *Frame) TotalFrames() int { return f.total }

// Averages returns mean build, raster and total durations over the trailing averaging window.
func (f *Frame) Averages() (build, raster, total time.Duration) {
	cutoff := f.now().Add(-f.cfg.AverageWindow)
	var n int64
	for _, r := range f.history.All() {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		build += r.Build
		raster += r.Raster
		total += r.Total
		n++
	}
	if n == 0 {
		return 0, 0, 0
	}
	return build / time.Duration(n), raster / time.Duration(n), total / time.Duration(n)
}

// AverageBuildTime is the mean build duration over the averaging window.
func (f *Frame) AverageBuildTime() time.Duration {
	b, _, _ := f.Averages()
	return b
}

// AverageRasterTime is the mean raster duration over the averaging window.
func (f *Frame) AverageRasterTime() time.Duration {
	_, r, _ := f.Averages()
	return r
}

// AverageFrameTime is the mean total duration over the averaging window.
func (f *Frame) AverageFrameTime() time.Duration {
	_, _, t := f.Averages()
	return t
}

// IsJanking reports more than JankBurst jank frames inside the trailing FPS window.
func (f *Frame) IsJanking() bool {
	cutoff := f.now().Add(-f.cfg.FPSWindow)
	n := 0
	for _, r := range f.history.All() {
		if r.Total > f.cfg.JankThreshold && !r.Timestamp.Before(cutoff) {
			n++
		}
	}
	return n > f.cfg.JankBurst
}

// History returns retained records, oldest first.
func (f *Frame) History() []domain.FrameTimingRecord { return f.history.All() }

// Reset clears records and counters, which restores the initial FPS.
func (f *Frame) Reset() {
	f.history.Clear()
	f.jank = 0
	f.total = 0
}
