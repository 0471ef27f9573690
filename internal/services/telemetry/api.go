package telemetry

import (
	"context"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/history"
	"github.com/vshulcz/Perfwatch/internal/services/score"
	"github.com/vshulcz/Perfwatch/pkg/observer"
)

var bg = context.Background()

// RecordRebuild counts one rebuild of key.
func (c *Context) RecordRebuild(key string) {
	c.do(bg, func() { c.rebuilds.RecordEvent(key) })
}

// RecordSetState counts one state mutation on key.
func (c *Context) RecordSetState(key string) {
	c.do(bg, func() { c.setStates.RecordEvent(key) })
}

// RecordEvent routes a keyed event by kind. Unkeyed kinds are ignored.
func (c *Context) RecordEvent(kind domain.EventKind, key string) {
	switch kind {
	case domain.KindRebuild:
		c.RecordRebuild(key)
	case domain.KindSetState:
		c.RecordSetState(key)
	case domain.KindResourceTrack:
		c.TrackResource(key)
	case domain.KindResourceDispose:
		c.DisposeResource(key)
	}
}

// IngestFrameTimings records a batch of frames and notifies frame listeners of every
// accepted record.
func (c *Context) IngestFrameTimings(records []domain.FrameTimingRecord) {
	var accepted []domain.FrameTimingRecord
	c.do(bg, func() { accepted = c.frames.Ingest(records) })
	for _, r := range accepted {
		c.frameLs.Publish(bg, r)
	}
}

// IngestMemorySample pushes one memory reading in MB.
func (c *Context) IngestMemorySample(mb float64) {
	c.do(bg, func() { c.memory.IngestSample(mb) })
}

// MeasureDepth runs the tree walker, throttled.
func (c *Context) MeasureDepth() domain.DepthMeasurement {
	var m domain.DepthMeasurement
	c.do(bg, func() { m = c.depth.Measure() })
	return m
}

// RecordDepth ingests a host-computed tree measurement, throttled.
func (c *Context) RecordDepth(depth, nodes int) domain.DepthMeasurement {
	var m domain.DepthMeasurement
	c.do(bg, func() { m = c.depth.Record(depth, nodes) })
	return m
}

// MeasureSize records the laid-out size of key, throttled per key.
func (c *Context) MeasureSize(key string, width, height float64) domain.SizeMeasurement {
	var m domain.SizeMeasurement
	c.do(bg, func() { m = c.size.Measure(key, width, height) })
	return m
}

// TrackResource registers a disposable resource.
func (c *Context) TrackResource(key string) {
	c.do(bg, func() { c.resources.Track(key) })
}

// DisposeResource marks a resource as released.
func (c *Context) DisposeResource(key string) {
	c.do(bg, func() { c.resources.Dispose(key) })
}

// Ingest dispatches a typed event to its tracker.
func (c *Context) Ingest(ev domain.MetricEvent) {
	switch e := ev.(type) {
	case domain.RebuildEvent:
		c.RecordRebuild(e.Key)
	case domain.SetStateEvent:
		c.RecordSetState(e.Key)
	case domain.FrameTimingRecord:
		c.IngestFrameTimings([]domain.FrameTimingRecord{e})
	case domain.MemorySample:
		c.IngestMemorySample(e.UsageMB)
	case domain.DepthMeasurement:
		c.RecordDepth(e.Depth, e.NodeCount)
	case domain.SizeMeasurement:
		c.MeasureSize(e.Key, e.Width, e.Height)
	case domain.ResourceEvent:
		if e.Disposed {
			c.DisposeResource(e.Key)
		} else {
			c.TrackResource(e.Key)
		}
	}
}

// AddWarningListener registers fn for every reported warning.
func (c *Context) AddWarningListener(fn func(domain.Warning)) ListenerID {
	return c.store.AddListener(fn)
}

// RemoveWarningListener detaches a warning listener.
func (c *Context) RemoveWarningListener(id ListenerID) bool {
	return c.store.RemoveListener(id)
}

// AddFrameListener registers fn for every accepted frame record.
func (c *Context) AddFrameListener(fn func(domain.FrameTimingRecord)) ListenerID {
	if fn == nil {
		return 0
	}
	return c.frameLs.Attach(observer.ObserverFunc[domain.FrameTimingRecord](
		func(_ context.Context, r domain.FrameTimingRecord) error {
			fn(r)
			return nil
		}))
}

// RemoveFrameListener detaches a frame listener.
func (c *Context) RemoveFrameListener(id ListenerID) bool {
	return c.frameLs.Detach(id)
}

// Snapshot aggregates every tracker and the warning store at this instant.
func (c *Context) Snapshot() domain.MetricsSnapshot {
	c.mu.Lock()
	build, raster, total := c.frames.Averages()
	last := c.depth.Last()
	snap := domain.MetricsSnapshot{
		Timestamp:      c.clk.Now(),
		FPS:            c.frames.CurrentFPS(),
		AvgBuildMs:     domain.DurationMs(build),
		AvgRasterMs:    domain.DurationMs(raster),
		AvgFrameMs:     domain.DurationMs(total),
		JankFrames:     c.frames.JankCount(),
		TotalFrames:    c.frames.TotalFrames(),
		IsJanking:      c.frames.IsJanking(),
		MemoryMB:       c.memory.Current(),
		PeakMemoryMB:   c.memory.Peak(),
		IsLeaking:      c.memory.IsLeaking(),
		TotalRebuilds:  c.rebuilds.TotalCount(),
		TopRebuilders:  c.rebuilds.TopN(c.opts.TopN),
		TotalSetState:  c.setStates.TotalCount(),
		TopSetState:    c.setStates.TopN(c.opts.TopN),
		MaxDepth:       c.depth.MaxDepth(),
		NodeCount:      last.NodeCount,
		OversizedCount: len(c.size.Oversized()),
		Undisposed:     c.resources.Undisposed(),
	}
	c.mu.Unlock()

	snap.WarningCount = c.store.Len()
	snap.CriticalCount = c.store.CriticalCount()
	snap.WarningsByKind = c.store.CountByKind()
	return snap
}

// Score computes the weighted health score of the current snapshot.
func (c *Context) Score() domain.Score {
	return score.Calculate(c.Snapshot())
}

// Suggestions returns heuristic suggestions merged with the last augmenter result and
// triggers a new augmenter call in the background.
func (c *Context) Suggestions(ctx context.Context) []domain.Suggestion {
	return c.engine.Generate(ctx, c.Snapshot())
}

// History returns the recorded snapshots, oldest first.
func (c *Context) History() []domain.MetricsSnapshot { return c.history.Snapshots() }

// Trend classifies the FPS direction of the two newest recorded snapshots.
func (c *Context) Trend() history.Trend { return c.history.Trend() }

// RecordHistory captures a snapshot immediately, outside the history tick.
func (c *Context) RecordHistory() domain.MetricsSnapshot {
	snap := c.Snapshot()
	c.history.Record(snap)
	return snap
}

// Warnings returns the retained warnings, oldest first.
func (c *Context) Warnings() []domain.Warning { return c.store.All() }

// JSONReport assembles the persisted report form.
func (c *Context) JSONReport() domain.Report {
	snap := c.Snapshot()
	return domain.NewReport(snap, score.Calculate(snap), c.store.All())
}
