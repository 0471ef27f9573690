package tracker

import (
	"testing"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

func TestDepth_ThresholdsAndEscalation(t *testing.T) {
	tests := []struct {
		name      string
		depth     int
		nodes     int
		wantDeep  domain.Severity
		wantLarge domain.Severity
	}{
		{"within limits", 10, 100, "", ""},
		{"deep", 35, 100, domain.SeverityWarning, ""},
		{"very deep", 46, 100, domain.SeverityCritical, ""},
		{"large", 10, 6000, "", domain.SeverityWarning},
		{"very large", 10, 8000, "", domain.SeverityCritical},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s sink
			d := NewDepth(DefaultDepthConfig(), nil, newClock().Now, s.emit)
			d.Start()
			d.Record(tc.depth, tc.nodes)
			check := func(kind domain.WarningKind, want domain.Severity) {
				t.Helper()
				var got domain.Severity
				for _, w := range s.got {
					if w.Kind == kind {
						got = w.Severity
					}
				}
				if got != want {
					t.Fatalf("%s severity = %q, want %q", kind, got, want)
				}
			}
			check(domain.WarnDeepTree, tc.wantDeep)
			check(domain.WarnLargeTree, tc.wantLarge)
		})
	}
}

func TestDepth_Throttle(t *testing.T) {
	clk := newClock()
	calls := 0
	walk := func() (int, int) {
		calls++
		return 10 + calls, 100
	}
	d := NewDepth(DefaultDepthConfig(), walk, clk.Now, nil)
	d.Start()

	first := d.Measure()
	clk.Advance(time.Second)
	second := d.Measure()
	if calls != 1 || second != first {
		t.Fatalf("throttled Measure ran the walk: calls=%d", calls)
	}
	clk.Advance(2 * time.Second)
	third := d.Measure()
	if calls != 2 || third.Depth != 12 {
		t.Fatalf("Measure after interval: calls=%d depth=%d", calls, third.Depth)
	}
	if d.MaxDepth() != 12 {
		t.Fatalf("MaxDepth = %d", d.MaxDepth())
	}
}

func TestDepth_ThrottleDisabled(t *testing.T) {
	cfg := DefaultDepthConfig()
	cfg.MinInterval = -1
	d := NewDepth(cfg, nil, newClock().Now, nil)
	d.Start()
	d.Record(5, 10)
	if got := d.Record(7, 10); got.Depth != 7 {
		t.Fatalf("negative MinInterval should disable throttling, got %+v", got)
	}
}

func TestDepth_PanickingWalker(t *testing.T) {
	d := NewDepth(DefaultDepthConfig(), func() (int, int) { panic("detached") }, newClock().Now, nil)
	d.Start()
	if got := d.Measure(); got != (domain.DepthMeasurement{}) {
		t.Fatalf("panicking walk should yield the previous measurement, got %+v", got)
	}
}

func TestDepth_StoppedAndReset(t *testing.T) {
	d := NewDepth(DefaultDepthConfig(), nil, newClock().Now, nil)
	d.Record(50, 10)
	if d.MaxDepth() != 0 {
		t.Fatal("stopped tracker recorded a measurement")
	}
	d.Start()
	d.Record(50, 10)
	d.Reset()
	if d.MaxDepth() != 0 || d.Last() != (domain.DepthMeasurement{}) {
		t.Fatal("Reset left state behind")
	}
}

func TestSize_Oversized(t *testing.T) {
	clk := newClock()
	var s sink
	sz := NewSize(DefaultSizeConfig(), clk.Now, s.emit)
	sz.Start()

	sz.Measure("list", 400, 2500)
	sz.Measure("image", 3500, 100)
	sz.Measure("button", 80, 40)
	sz.Measure("", 9000, 9000)

	if got := sz.Oversized(); len(got) != 2 || got[0] != "image" || got[1] != "list" {
		t.Fatalf("Oversized = %v", got)
	}
	if s.count(domain.WarnOversizedWidget) != 2 {
		t.Fatalf("warnings = %d", s.count(domain.WarnOversizedWidget))
	}
	if s.got[0].Severity != domain.SeverityWarning || s.got[1].Severity != domain.SeverityCritical {
		t.Fatalf("severities = %s, %s", s.got[0].Severity, s.got[1].Severity)
	}
	if s.got[0].Source != "list" {
		t.Fatalf("source = %q", s.got[0].Source)
	}
}

func TestSize_ThrottlePerKey(t *testing.T) {
	clk := newClock()
	var s sink
	sz := NewSize(DefaultSizeConfig(), clk.Now, s.emit)
	sz.Start()

	sz.Measure("panel", 2500, 10)
	sz.Measure("panel", 100, 10)
	sz.Measure("other", 2500, 10)
	if got, _ := sz.Latest("panel"); got.Width != 2500 {
		t.Fatalf("throttled measurement replaced latest: %+v", got)
	}
	if s.count(domain.WarnOversizedWidget) != 2 {
		t.Fatalf("warnings = %d", s.count(domain.WarnOversizedWidget))
	}

	clk.Advance(3 * time.Second)
	sz.Measure("panel", 100, 10)
	if got := sz.Oversized(); len(got) != 1 || got[0] != "other" {
		t.Fatalf("Oversized = %v", got)
	}
	sz.Reset()
	if _, ok := sz.Latest("other"); ok {
		t.Fatal("Reset left measurements behind")
	}
}
