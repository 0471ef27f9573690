package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// EventKind names the wire type of a metric event.
type EventKind string

const (
	KindRebuild         EventKind = "rebuild"
	KindSetState        EventKind = "setState"
	KindFrame           EventKind = "frame"
	KindMemory          EventKind = "memory"
	KindDepth           EventKind = "depth"
	KindSize            EventKind = "size"
	KindResourceTrack   EventKind = "resourceTrack"
	KindResourceDispose EventKind = "resourceDispose"
)

// MetricEvent is implemented by every raw event the trackers ingest.
type MetricEvent interface {
	Kind() EventKind
	At() time.Time
}

// RebuildEvent records a single rebuild of the keyed entity.
type RebuildEvent struct {
	Timestamp time.Time
	Key       string
}

// SetStateEvent records a single state-mutation call on the keyed entity.
type SetStateEvent struct {
	Timestamp time.Time
	Key       string
}

// FrameTimingRecord carries the phase durations of one rendered frame.
type FrameTimingRecord struct {
	Timestamp time.Time
	Build     time.Duration
	Raster    time.Duration
	Total     time.Duration
}

// MemorySample is one externally measured memory reading in megabytes.
type MemorySample struct {
	Timestamp time.Time
	UsageMB   float64
}

// DepthMeasurement is a point measurement of the tracked tree.
type DepthMeasurement struct {
	Timestamp time.Time
	Depth     int
	NodeCount int
}

// SizeMeasurement is the laid-out size of the keyed entity in logical units.
type SizeMeasurement struct {
	Timestamp time.Time
	Key       string
	Width     float64
	Height    float64
}

// ResourceEvent tracks or disposes a long-lived resource.
type ResourceEvent struct {
	Timestamp time.Time
	Key       string
	Disposed  bool
}

func (e RebuildEvent) Kind() EventKind      { return KindRebuild }
func (e RebuildEvent) At() time.Time        { return e.Timestamp }
func (e SetStateEvent) Kind() EventKind     { return KindSetState }
func (e SetStateEvent) At() time.Time       { return e.Timestamp }
func (e FrameTimingRecord) Kind() EventKind { return KindFrame }
func (e FrameTimingRecord) At() time.Time   { return e.Timestamp }
func (e MemorySample) Kind() EventKind      { return KindMemory }
func (e MemorySample) At() time.Time        { return e.Timestamp }
func (e DepthMeasurement) Kind() EventKind  { return KindDepth }
func (e DepthMeasurement) At() time.Time    { return e.Timestamp }
func (e SizeMeasurement) Kind() EventKind   { return KindSize }
func (e SizeMeasurement) At() time.Time     { return e.Timestamp }

func (e ResourceEvent) Kind() EventKind {
	if e.Disposed {
		return KindResourceDispose
	}
	return KindResourceTrack
}
func (e ResourceEvent) At() time.Time { return e.Timestamp }

// MaxDimension returns the larger of width and height.
func (s SizeMeasurement) MaxDimension() float64 {
	return math.Max(s.Width, s.Height)
}

// EventEnvelope is the JSON wire form of a MetricEvent.
type EventEnvelope struct {
	Type      EventKind `json:"type"`
	Key       string    `json:"key,omitempty"`
	BuildMs   float64   `json:"buildMs,omitempty"`
	RasterMs  float64   `json:"rasterMs,omitempty"`
	TotalMs   float64   `json:"totalMs,omitempty"`
	UsageMB   float64   `json:"usageMB,omitempty"`
	Depth     int       `json:"depth,omitempty"`
	NodeCount int       `json:"nodeCount,omitempty"`
	Width     float64   `json:"width,omitempty"`
	Height    float64   `json:"height,omitempty"`
	TS        int64     `json:"ts,omitempty"`
}

// Decode converts the envelope into a typed event. A zero ts leaves the timestamp zero.
func (e EventEnvelope) Decode() (MetricEvent, error) {
	var ts time.Time
	if e.TS > 0 {
		ts = time.UnixMilli(e.TS)
	}
	key := strings.TrimSpace(e.Key)
	needKey := func() error {
		if key == "" {
			return fmt.Errorf("%w: %s event without key", ErrInvalidEvent, e.Type)
		}
		return nil
	}

	switch e.Type {
	case KindRebuild:
		if err := needKey(); err != nil {
			return nil, err
		}
		return RebuildEvent{Key: key, Timestamp: ts}, nil
	case KindSetState:
		if err := needKey(); err != nil {
			return nil, err
		}
		return SetStateEvent{Key: key, Timestamp: ts}, nil
	case KindFrame:
		return FrameTimingRecord{
			Build:     msToDuration(e.BuildMs),
			Raster:    msToDuration(e.RasterMs),
			Total:     msToDuration(e.TotalMs),
			Timestamp: ts,
		}, nil
	case KindMemory:
		return MemorySample{UsageMB: e.UsageMB, Timestamp: ts}, nil
	case KindDepth:
		return DepthMeasurement{Depth: e.Depth, NodeCount: e.NodeCount, Timestamp: ts}, nil
	case KindSize:
		if err := needKey(); err != nil {
			return nil, err
		}
		return SizeMeasurement{Key: key, Width: e.Width, Height: e.Height, Timestamp: ts}, nil
	case KindResourceTrack, KindResourceDispose:
		if err := needKey(); err != nil {
			return nil, err
		}
		return ResourceEvent{Key: key, Disposed: e.Type == KindResourceDispose, Timestamp: ts}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
}

// EnvelopeOf is the inverse of Decode.
func EnvelopeOf(ev MetricEvent) EventEnvelope {
	env := EventEnvelope{Type: ev.Kind()}
	if ts := ev.At(); !ts.IsZero() {
		env.TS = ts.UnixMilli()
	}
	switch e := ev.(type) {
	case RebuildEvent:
		env.Key = e.Key
	case SetStateEvent:
		env.Key = e.Key
	case FrameTimingRecord:
		env.BuildMs = DurationMs(e.Build)
		env.RasterMs = DurationMs(e.Raster)
		env.TotalMs = DurationMs(e.Total)
	case MemorySample:
		env.UsageMB = e.UsageMB
	case DepthMeasurement:
		env.Depth = e.Depth
		env.NodeCount = e.NodeCount
	case SizeMeasurement:
		env.Key = e.Key
		env.Width = e.Width
		env.Height = e.Height
	case ResourceEvent:
		env.Key = e.Key
	}
	return env
}

// DurationMs converts d to fractional milliseconds.
func DurationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// maxFrameMs is the largest millisecond value that still fits a time.Duration.
const maxFrameMs = float64(math.MaxInt64 / int64(time.Millisecond))

// msToDuration maps non-positive and NaN values to zero and saturates at maxFrameMs.
func msToDuration(ms float64) time.Duration {
	switch {
	case ms <= 0 || math.IsNaN(ms):
		return 0
	case ms >= maxFrameMs:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ms * float64(time.Millisecond))
}
