package score

import (
	"testing"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

func TestCalculate_Idle(t *testing.T) {
	got := Calculate(domain.MetricsSnapshot{FPS: 60})
	if got.Total != 100 || got.Grade != domain.GradeAPlus {
		t.Fatalf("idle score = %d %s, want 100 A+", got.Total, got.Grade)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	snap := domain.MetricsSnapshot{FPS: 45, MemoryMB: 350, TotalRebuilds: 250, JankFrames: 7, WarningCount: 6, CriticalCount: 1, TotalSetState: 60, MaxDepth: 33}
	a, b := Calculate(snap), Calculate(snap)
	if a != b {
		t.Fatalf("Calculate not deterministic: %+v vs %+v", a, b)
	}
	// 60*.25 + 60*.20 + 60*.15 + 60*.15 + 60*.10 + 60*.075 + 60*.075 = 60
	if a.Total != 60 || a.Grade != domain.GradeC {
		t.Fatalf("score = %d %s, want 60 C", a.Total, a.Grade)
	}
}

func TestCalculate_Worst(t *testing.T) {
	got := Calculate(domain.MetricsSnapshot{FPS: 5, MemoryMB: 900, TotalRebuilds: 5000, JankFrames: 90, WarningCount: 50, CriticalCount: 20, TotalSetState: 900, MaxDepth: 80})
	if got.Total != 20 || got.Grade != domain.GradeF {
		t.Fatalf("worst score = %d %s", got.Total, got.Grade)
	}
}

func TestComponentTables(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"fps 58", FPS(58), 100},
		{"fps 57.9", FPS(57.9), 80},
		{"fps 40", FPS(40), 60},
		{"fps 30", FPS(30), 40},
		{"fps 29", FPS(29), 20},
		{"memory unknown", Memory(0), 100},
		{"memory 99", Memory(99), 100},
		{"memory 100", Memory(100), 80},
		{"memory 599", Memory(599), 40},
		{"memory 600", Memory(600), 20},
		{"rebuilds 49", Rebuilds(49), 100},
		{"rebuilds 50", Rebuilds(50), 80},
		{"rebuilds 999", Rebuilds(999), 40},
		{"rebuilds 1000", Rebuilds(1000), 20},
		{"jank 0", Jank(0), 100},
		{"jank 1", Jank(1), 80},
		{"jank 14", Jank(14), 60},
		{"jank 30", Jank(30), 20},
		{"setState 19", SetState(19), 100},
		{"setState 199", SetState(199), 40},
		{"depth 29", Depth(29), 80},
		{"depth 50", Depth(50), 20},
		{"warnings none", Warnings(0, 0), 100},
		{"warnings few", Warnings(4, 0), 80},
		{"warnings one critical", Warnings(4, 1), 60},
		{"warnings many low critical", Warnings(12, 2), 40},
		{"warnings many critical", Warnings(12, 5), 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %d, want %d", tc.got, tc.want)
			}
		})
	}
}

func TestGradeOf(t *testing.T) {
	tests := []struct {
		total int
		want  domain.Grade
	}{
		{100, domain.GradeAPlus}, {90, domain.GradeAPlus}, {89, domain.GradeA}, {80, domain.GradeA},
		{70, domain.GradeB}, {60, domain.GradeC}, {50, domain.GradeD}, {49, domain.GradeF}, {0, domain.GradeF},
	}
	for _, tc := range tests {
		if got := GradeOf(tc.total); got != tc.want {
			t.Errorf("GradeOf(%d) = %s, want %s", tc.total, got, tc.want)
		}
	}
}
