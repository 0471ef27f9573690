// Package telemetry owns every tracker behind one coarse lock and exposes the ingestion,
// push and pull API.
package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/clock"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
	"github.com/vshulcz/Perfwatch/internal/services/history"
	"github.com/vshulcz/Perfwatch/internal/services/score"
	"github.com/vshulcz/Perfwatch/internal/services/suggest"
	"github.com/vshulcz/Perfwatch/internal/services/warnings"
	"github.com/vshulcz/Perfwatch/internal/tracker"
	"github.com/vshulcz/Perfwatch/pkg/observer"
)

// ErrDisabled is returned by Start when the options forbid tracking.
var ErrDisabled = errors.New("telemetry disabled")

// ListenerID identifies a warning or frame listener.
type ListenerID = observer.ID

// Context is the explicit owner of all trackers. It is safe for concurrent use.
//
// Trackers do not lock; every access goes through mu. Warnings raised while mu is held are
// buffered and reported to the store after it is released, so listeners run lock-free.
type Context struct {
	clk       clock.Clock
	log       *zap.Logger
	sampler   ports.MemorySampler
	walk      ports.TreeWalker
	augmenter ports.InsightAugmenter

	rebuilds  *tracker.Frequency
	setStates *tracker.Frequency
	memory    *tracker.Memory
	frames    *tracker.Frame
	depth     *tracker.Depth
	size      *tracker.Size
	resources *tracker.Resource

	store   *warnings.Store
	frameLs *observer.Subject[domain.FrameTimingRecord]
	engine  *suggest.Engine
	history *history.Recorder

	cancel  context.CancelFunc
	pending []domain.Warning
	opts    Options
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// New builds a stopped Context.
func New(opts Options, options ...Option) *Context {
	c := &Context{opts: opts.withDefaults(), clk: clock.Real{}}
	for _, o := range options {
		o(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	o := c.opts
	now := c.clk.Now
	emit := func(w domain.Warning) { c.pending = append(c.pending, w) }

	c.rebuilds = tracker.NewFrequency(tracker.RebuildConfig(o.RebuildWarningCount, o.FrequencyWindow), now, emit)
	c.setStates = tracker.NewFrequency(tracker.SetStateConfig(o.SetStateWarningCount, o.FrequencyWindow), now, emit)
	c.memory = tracker.NewMemory(tracker.MemoryConfig{
		WarnMB:     o.MemoryWarnMB,
		CriticalMB: o.MemoryCriticalMB,
	}, c.sampler, now, emit)
	c.frames = tracker.NewFrame(tracker.FrameConfig{JankThreshold: o.WarningThreshold}, now, emit)
	c.depth = tracker.NewDepth(tracker.DepthConfig{
		MaxDepth:    o.MaxWidgetDepth,
		MaxNodes:    o.MaxNodeCount,
		MinInterval: o.MeasureInterval,
	}, c.walk, now, emit)
	c.size = tracker.NewSize(tracker.SizeConfig{
		MaxDimension: o.MaxWidgetDimension,
		MinInterval:  o.MeasureInterval,
	}, now, emit)
	c.resources = tracker.NewResource(o.ResourceMaxAge, now, emit)

	c.store = warnings.New(o.WarningCapacity)
	c.store.SetErrorHandler(func(err error) { c.log.Warn("warning listener failed", zap.Error(err)) })
	c.frameLs = observer.NewSubject[domain.FrameTimingRecord]()
	c.frameLs.SetErrorHandler(func(err error) { c.log.Warn("frame listener failed", zap.Error(err)) })
	c.engine = suggest.NewEngine(c.augmenter, c.log)
	c.history = history.NewRecorder(o.HistoryCapacity)

	if o.LogWarnings {
		c.store.AddListener(c.logWarning)
	}
	if o.OnWarning != nil {
		c.store.AddListener(o.OnWarning)
	}
	if o.OnFrame != nil {
		c.AddFrameListener(o.OnFrame)
	}
	return c
}

func (c *Context) logWarning(w domain.Warning) {
	fields := []zap.Field{
		zap.String("kind", string(w.Kind)),
		zap.String("severity", string(w.Severity)),
		zap.String("source", w.Source),
	}
	if w.Severity == domain.SeverityCritical {
		c.log.Error(w.Message, fields...)
		return
	}
	c.log.Warn(w.Message, fields...)
}

// Options returns the effective options.
func (c *Context) Options() Options { return c.opts }

// HasMemorySampler reports whether the memory tick loop has a sampler to query.
func (c *Context) HasMemorySampler() bool { return c.sampler != nil }

// HasTreeWalker reports whether MeasureDepth has a tree walker to run.
func (c *Context) HasTreeWalker() bool { return c.walk != nil }

// Store exposes the warning store for sinks that attach listeners.
func (c *Context) Store() *warnings.Store { return c.store }

// Start moves the enabled trackers to Tracking and launches the tick loops. Calling it while
// running is a no-op. The loops stop on Stop or when ctx is cancelled.
func (c *Context) Start(ctx context.Context) error {
	if !c.opts.Allowed() {
		c.log.Info("telemetry not started",
			zap.Bool("enabled", c.opts.Enabled),
			zap.Bool("production", c.opts.Production))
		return ErrDisabled
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	c.running = true
	o := c.opts
	startIf(o.TrackRebuilds, c.rebuilds)
	startIf(o.TrackSetState, c.setStates)
	startIf(o.TrackMemory, c.memory)
	startIf(true, c.frames)
	startIf(o.TrackWidgetDepth, c.depth)
	startIf(o.TrackWidgetSize, c.size)
	startIf(o.TrackAnimations, c.resources)

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if o.TrackMemory && c.sampler != nil {
		c.wg.Add(1)
		go c.loop(loopCtx, c.clk.NewTicker(o.MemoryCheckInterval), c.memoryTick)
	}
	c.wg.Add(1)
	go c.loop(loopCtx, c.clk.NewTicker(o.HistoryInterval), c.historyTick)
	return nil
}

func startIf(on bool, t interface{ Start() }) {
	if on {
		t.Start()
	}
}

// Stop halts the tick loops and moves every tracker to Stopped. Calling it twice is a no-op.
func (c *Context) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	for _, t := range c.trackers() {
		t.Stop()
	}
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.engine.Wait()
}

// IsTracking reports whether Start succeeded and Stop has not been called since.
func (c *Context) IsTracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reset clears every tracker, the warning store, history and the merged augmenter result.
// Lifecycle state and listeners are kept.
func (c *Context) Reset() {
	c.mu.Lock()
	for _, t := range c.trackers() {
		t.Reset()
	}
	c.pending = nil
	c.mu.Unlock()

	c.store.Clear()
	c.history.Reset()
	c.engine.Reset()
}

type resettable interface {
	Stop()
	Reset()
}

func (c *Context) trackers() []resettable {
	return []resettable{c.rebuilds, c.setStates, c.memory, c.frames, c.depth, c.size, c.resources}
}

// loop takes a ticker created by the caller so it is registered before Start returns.
func (c *Context) loop(ctx context.Context, t clock.Ticker, tick func(context.Context)) {
	defer c.wg.Done()
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			tick(ctx)
		}
	}
}

func (c *Context) memoryTick(ctx context.Context) {
	mb, err := c.memory.Sample(ctx)
	if err != nil {
		c.log.Debug("memory sample skipped", zap.Error(err))
		return
	}
	c.do(ctx, func() { c.memory.IngestSample(mb) })
}

func (c *Context) historyTick(ctx context.Context) {
	c.do(ctx, c.resources.Sweep)
	c.history.Record(c.Snapshot())
}

// do runs fn under the lock and reports the warnings it raised once the lock is released.
func (c *Context) do(ctx context.Context, fn func()) {
	for _, w := range c.locked(fn) {
		c.store.Report(ctx, w)
	}
}

func (c *Context) locked(fn func()) []domain.Warning {
	c.mu.Lock()
	defer func() {
		c.pending = nil
		c.mu.Unlock()
	}()
	fn()
	return c.pending
}
