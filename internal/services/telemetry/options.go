package telemetry

import (
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/clock"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// Options configures a Context. Zero numeric fields fall back to the defaults.
type Options struct {
	OnWarning func(domain.Warning)
	OnFrame   func(domain.FrameTimingRecord)

	WarningThreshold     time.Duration
	FrequencyWindow      time.Duration
	MemoryCheckInterval  time.Duration
	HistoryInterval      time.Duration
	MeasureInterval      time.Duration
	ResourceMaxAge       time.Duration
	RebuildWarningCount  int
	SetStateWarningCount int
	MaxWidgetDepth       int
	MaxNodeCount         int
	WarningCapacity      int
	HistoryCapacity      int
	TopN                 int
	MemoryWarnMB         float64
	MemoryCriticalMB     float64
	MaxWidgetDimension   float64

	Enabled            bool
	Production         bool
	EnableInUnsafeMode bool
	LogWarnings        bool

	TrackRebuilds    bool
	TrackMemory      bool
	TrackAnimations  bool
	TrackWidgetSize  bool
	TrackWidgetDepth bool
	TrackSetState    bool
}

// DefaultOptions enables every tracker with the stock thresholds.
func DefaultOptions() Options {
	return Options{
		Enabled:              true,
		WarningThreshold:     16 * time.Millisecond,
		FrequencyWindow:      2 * time.Second,
		RebuildWarningCount:  60,
		SetStateWarningCount: 30,
		MaxWidgetDepth:       30,
		MaxNodeCount:         5000,
		MaxWidgetDimension:   2000,
		MemoryWarnMB:         400,
		MemoryCriticalMB:     600,
		MemoryCheckInterval:  5 * time.Second,
		HistoryInterval:      10 * time.Second,
		MeasureInterval:      3 * time.Second,
		ResourceMaxAge:       time.Minute,
		WarningCapacity:      200,
		HistoryCapacity:      1000,
		TopN:                 10,
		TrackRebuilds:        true,
		TrackMemory:          true,
		TrackAnimations:      true,
		TrackWidgetSize:      true,
		TrackWidgetDepth:     true,
		TrackSetState:        true,
	}
}

// Allowed reports whether telemetry may start under these options.
func (o Options) Allowed() bool {
	return o.Enabled && (!o.Production || o.EnableInUnsafeMode)
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.WarningThreshold <= 0 {
		o.WarningThreshold = def.WarningThreshold
	}
	if o.FrequencyWindow <= 0 {
		o.FrequencyWindow = def.FrequencyWindow
	}
	if o.MemoryCheckInterval <= 0 {
		o.MemoryCheckInterval = def.MemoryCheckInterval
	}
	if o.HistoryInterval <= 0 {
		o.HistoryInterval = def.HistoryInterval
	}
	if o.RebuildWarningCount <= 0 {
		o.RebuildWarningCount = def.RebuildWarningCount
	}
	if o.SetStateWarningCount <= 0 {
		o.SetStateWarningCount = def.SetStateWarningCount
	}
	if o.TopN <= 0 {
		o.TopN = def.TopN
	}
	return o
}

// Option wires a collaborator into the Context.
type Option func(*Context)

// WithClock replaces the wall clock, typically with a clock.Manual in tests.
func WithClock(c clock.Clock) Option {
	return func(ctx *Context) { ctx.clk = c }
}

// WithLogger sets the logger used for warning and tick logs.
func WithLogger(l *zap.Logger) Option {
	return func(ctx *Context) { ctx.log = l }
}

// WithMemorySampler enables periodic memory sampling.
func WithMemorySampler(s ports.MemorySampler) Option {
	return func(ctx *Context) { ctx.sampler = s }
}

// WithTreeWalker sets the tree walker MeasureDepth calls.
func WithTreeWalker(p ports.TreeWalker) Option {
	return func(ctx *Context) { ctx.walk = p }
}

// WithAugmenter enables the asynchronous insight augmenter.
func WithAugmenter(a ports.InsightAugmenter) Option {
	return func(ctx *Context) { ctx.augmenter = a }
}
