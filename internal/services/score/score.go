// Package score turns a metrics snapshot into a weighted health score.
package score

import (
	"math"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

type step struct {
	limit  float64
	points int
}

// below returns the points of the first step whose limit value is under.
func below(value float64, steps []step) int {
	for _, s := range steps {
		if value < s.limit {
			return s.points
		}
	}
	return 20
}

var (
	memorySteps   = []step{{100, 100}, {200, 80}, {400, 60}, {600, 40}}
	rebuildSteps  = []step{{50, 100}, {200, 80}, {500, 60}, {1000, 40}}
	jankSteps     = []step{{1, 100}, {5, 80}, {15, 60}, {30, 40}}
	setStateSteps = []step{{20, 100}, {50, 80}, {100, 60}, {200, 40}}
	depthSteps    = []step{{20, 100}, {30, 80}, {40, 60}, {50, 40}}
)

// Weights of each component in the total.
const (
	WeightFPS      = 0.25
	WeightJank     = 0.20
	WeightRebuilds = 0.15
	WeightMemory   = 0.15
	WeightWarnings = 0.10
	WeightSetState = 0.075
	WeightDepth    = 0.075
)

// FPS scores frames per second.
func FPS(fps float64) int {
	switch {
	case fps >= 58:
		return 100
	case fps >= 50:
		return 80
	case fps >= 40:
		return 60
	case fps >= 30:
		return 40
	default:
		return 20
	}
}

// Memory scores the current usage in MB. Unknown usage scores full.
func Memory(mb float64) int {
	if mb <= 0 {
		return 100
	}
	return below(mb, memorySteps)
}

// Rebuilds scores the total rebuild count.
func Rebuilds(total int) int { return below(float64(total), rebuildSteps) }

// Jank scores the total jank frame count.
func Jank(total int) int { return below(float64(total), jankSteps) }

// SetState scores the total state mutation count.
func SetState(total int) int { return below(float64(total), setStateSteps) }

// Depth scores the deepest measured tree.
func Depth(maxDepth int) int { return below(float64(maxDepth), depthSteps) }

// Warnings scores the retained warnings by total and critical count.
func Warnings(total, critical int) int {
	switch {
	case total == 0:
		return 100
	case critical == 0 && total < 5:
		return 80
	case critical < 3 && total < 10:
		return 60
	case critical < 5:
		return 40
	default:
		return 20
	}
}

// GradeOf maps a total to its letter grade.
func GradeOf(total int) domain.Grade {
	switch {
	case total >= 90:
		return domain.GradeAPlus
	case total >= 80:
		return domain.GradeA
	case total >= 70:
		return domain.GradeB
	case total >= 60:
		return domain.GradeC
	case total >= 50:
		return domain.GradeD
	default:
		return domain.GradeF
	}
}

// Calculate scores snap. It is pure: the same snapshot always yields the same score.
func Calculate(snap domain.MetricsSnapshot) domain.Score {
	s := domain.Score{
		Timestamp: snap.Timestamp,
		FPS:       FPS(snap.FPS),
		Memory:    Memory(snap.MemoryMB),
		Rebuilds:  Rebuilds(snap.TotalRebuilds),
		Jank:      Jank(snap.JankFrames),
		Warnings:  Warnings(snap.WarningCount, snap.CriticalCount),
		SetState:  SetState(snap.TotalSetState),
		Depth:     Depth(snap.MaxDepth),
	}
	weighted := float64(s.FPS)*WeightFPS +
		float64(s.Jank)*WeightJank +
		float64(s.Rebuilds)*WeightRebuilds +
		float64(s.Memory)*WeightMemory +
		float64(s.Warnings)*WeightWarnings +
		float64(s.SetState)*WeightSetState +
		float64(s.Depth)*WeightDepth
	s.Total = min(max(int(math.Round(weighted)), 0), 100)
	s.Grade = GradeOf(s.Total)
	return s
}
