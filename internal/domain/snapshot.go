package domain

import (
	"maps"
	"slices"
	"time"
)

// EntityCount pairs a tracked key with its total event count.
type EntityCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// MetricsSnapshot is an immutable aggregate of every tracker at one instant.
type MetricsSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	FPS          float64 `json:"fps"`
	AvgBuildMs   float64 `json:"avgBuildMs"`
	AvgRasterMs  float64 `json:"avgRasterMs"`
	AvgFrameMs   float64 `json:"avgFrameMs"`
	JankFrames   int     `json:"jankFrames"`
	TotalFrames  int     `json:"totalFrames"`
	IsJanking    bool    `json:"isJanking"`
	MemoryMB     float64 `json:"memoryMB"`
	PeakMemoryMB float64 `json:"peakMemoryMB"`
	IsLeaking    bool    `json:"isLeaking"`

	TotalRebuilds int           `json:"totalRebuilds"`
	TopRebuilders []EntityCount `json:"topRebuilders,omitempty"`
	TotalSetState int           `json:"totalSetState"`
	TopSetState   []EntityCount `json:"topSetState,omitempty"`

	MaxDepth       int `json:"maxDepth"`
	NodeCount      int `json:"nodeCount"`
	OversizedCount int `json:"oversizedCount"`

	Undisposed []string `json:"undisposed,omitempty"`

	WarningCount   int                 `json:"warningCount"`
	CriticalCount  int                 `json:"criticalCount"`
	WarningsByKind map[WarningKind]int `json:"warningsByKind,omitempty"`
}

// Clone returns a deep copy so the receiver can be handed out safely.
func (s MetricsSnapshot) Clone() MetricsSnapshot {
	s.TopRebuilders = slices.Clone(s.TopRebuilders)
	s.TopSetState = slices.Clone(s.TopSetState)
	s.Undisposed = slices.Clone(s.Undisposed)
	if s.WarningsByKind != nil {
		s.WarningsByKind = maps.Clone(s.WarningsByKind)
	}
	return s
}
