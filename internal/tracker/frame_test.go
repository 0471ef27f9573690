package tracker

import (
	"testing"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

func frames(n int, at time.Time, step, total time.Duration) []domain.FrameTimingRecord {
	out := make([]domain.FrameTimingRecord, n)
	for i := range out {
		out[i] = domain.FrameTimingRecord{
			Timestamp: at.Add(time.Duration(i) * step),
			Build:     total / 2,
			Raster:    total - total/2,
			Total:     total,
		}
	}
	return out
}

func TestFrame_InitialFPS(t *testing.T) {
	f := NewFrame(DefaultFrameConfig(), newClock().Now, nil)
	if f.CurrentFPS() != 60 {
		t.Fatalf("initial FPS = %v, want 60", f.CurrentFPS())
	}
	if f.Ingest(frames(3, epoch, time.Millisecond, time.Millisecond)) != nil {
		t.Fatal("stopped tracker accepted frames")
	}
	if f.TotalFrames() != 0 || f.CurrentFPS() != 60 {
		t.Fatal("stopped tracker changed state")
	}
}

func TestFrame_WindowedFPS(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		step  time.Duration
		want  float64
		delay time.Duration
	}{
		{"thirty frames within a second", 30, 20 * time.Millisecond, 30, 0},
		{"old frames fall out", 30, 20 * time.Millisecond, 0, 2 * time.Second},
		{"clamped to max", 200, time.Millisecond, 120, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clk := newClock()
			f := NewFrame(DefaultFrameConfig(), clk.Now, nil)
			f.Start()
			start := clk.Now()
			clk.Advance(time.Duration(tc.n) * tc.step)
			clk.Advance(tc.delay)
			f.Ingest(frames(tc.n, start, tc.step, 8*time.Millisecond))
			if got := f.CurrentFPS(); got != tc.want {
				t.Fatalf("FPS = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFrame_FPSDecaysWhenFramesStop(t *testing.T) {
	clk := newClock()
	f := NewFrame(DefaultFrameConfig(), clk.Now, nil)
	f.Start()

	start := clk.Now()
	clk.Advance(time.Second)
	f.Ingest(frames(60, start.Add(time.Millisecond), 16*time.Millisecond, 8*time.Millisecond))
	if got := f.CurrentFPS(); got != 60 {
		t.Fatalf("FPS while rendering = %v, want 60", got)
	}

	clk.Advance(500 * time.Millisecond)
	if got := f.CurrentFPS(); got >= 60 || got <= 0 {
		t.Fatalf("FPS half a window after the last batch = %v, want between 0 and 60", got)
	}

	clk.Advance(5 * time.Second)
	if got := f.CurrentFPS(); got != 0 {
		t.Fatalf("FPS after frames stopped = %v, want 0", got)
	}
	if f.TotalFrames() != 60 {
		t.Fatalf("TotalFrames = %d", f.TotalFrames())
	}
}

func TestFrame_JankWarnings(t *testing.T) {
	clk := newClock()
	var s sink
	f := NewFrame(DefaultFrameConfig(), clk.Now, s.emit)
	f.Start()

	f.Ingest([]domain.FrameTimingRecord{
		{Build: 5 * time.Millisecond, Raster: 5 * time.Millisecond},
		{Build: 10 * time.Millisecond, Raster: 10 * time.Millisecond},
		{Build: 20 * time.Millisecond, Raster: 20 * time.Millisecond},
	})
	if s.count(domain.WarnSlowFrame) != 2 {
		t.Fatalf("slowFrame warnings = %d, want 2", s.count(domain.WarnSlowFrame))
	}
	if s.got[0].Severity != domain.SeverityWarning {
		t.Fatalf("20ms frame severity = %s", s.got[0].Severity)
	}
	if s.got[1].Severity != domain.SeverityCritical {
		t.Fatalf("40ms frame severity = %s", s.got[1].Severity)
	}
	if f.JankCount() != 2 || f.TotalFrames() != 3 {
		t.Fatalf("jank/total = %d/%d", f.JankCount(), f.TotalFrames())
	}
	if f.IsJanking() {
		t.Fatal("two jank frames should not count as janking")
	}

	f.Ingest(frames(1, clk.Now(), 0, 30*time.Millisecond))
	if !f.IsJanking() {
		t.Fatal("three jank frames within a second should be janking")
	}
	clk.Advance(2 * time.Second)
	if f.IsJanking() {
		t.Fatal("janking should clear once frames leave the window")
	}
}

func TestFrame_Normalize(t *testing.T) {
	clk := newClock()
	f := NewFrame(DefaultFrameConfig(), clk.Now, nil)
	f.Start()
	got := f.Ingest([]domain.FrameTimingRecord{
		{Build: -3 * time.Millisecond, Raster: 4 * time.Millisecond},
		{Build: 2 * time.Millisecond, Raster: 2 * time.Millisecond, Total: 9 * time.Millisecond},
	})
	if len(got) != 2 {
		t.Fatalf("accepted %d records", len(got))
	}
	if got[0].Build != 0 || got[0].Total != 4*time.Millisecond || !got[0].Timestamp.Equal(epoch) {
		t.Fatalf("first record = %+v", got[0])
	}
	if got[1].Total != 9*time.Millisecond {
		t.Fatalf("explicit total overwritten: %+v", got[1])
	}
}

func TestFrame_Averages(t *testing.T) {
	clk := newClock()
	f := NewFrame(DefaultFrameConfig(), clk.Now, nil)
	f.Start()

	if b, r, tot := f.Averages(); b != 0 || r != 0 || tot != 0 {
		t.Fatal("empty averages should be zero")
	}
	f.Ingest(frames(1, clk.Now(), 0, 40*time.Millisecond))
	clk.Advance(3 * time.Second)
	f.Ingest([]domain.FrameTimingRecord{
		{Build: 4 * time.Millisecond, Raster: 2 * time.Millisecond},
		{Build: 8 * time.Millisecond, Raster: 6 * time.Millisecond},
	})
	if got := f.AverageBuildTime(); got != 6*time.Millisecond {
		t.Fatalf("avg build = %v", got)
	}
	if got := f.AverageRasterTime(); got != 4*time.Millisecond {
		t.Fatalf("avg raster = %v", got)
	}
	if got := f.AverageFrameTime(); got != 10*time.Millisecond {
		t.Fatalf("avg total = %v", got)
	}
}

func TestFrame_HistoryAndReset(t *testing.T) {
	cfg := DefaultFrameConfig()
	cfg.HistorySize = 4
	clk := newClock()
	f := NewFrame(cfg, clk.Now, nil)
	f.Start()
	f.Ingest(frames(10, clk.Now(), time.Millisecond, 20*time.Millisecond))
	if len(f.History()) != 4 || f.TotalFrames() != 10 {
		t.Fatalf("history=%d total=%d", len(f.History()), f.TotalFrames())
	}
	f.Reset()
	if len(f.History()) != 0 || f.JankCount() != 0 || f.CurrentFPS() != 60 {
		t.Fatal("Reset left state behind")
	}
}
