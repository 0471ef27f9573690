package tracker

import (
	"testing"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

func TestResource_Lifecycle(t *testing.T) {
	clk := newClock()
	var s sink
	r := NewResource(time.Minute, clk.Now, s.emit)
	r.Start()

	r.Track("controller#1")
	r.Track("timer#2")
	clk.Advance(30 * time.Second)
	r.Track("controller#1")
	r.Dispose("timer#2")
	r.Dispose("unknown")

	if r.Live() != 1 || r.Disposed() != 1 {
		t.Fatalf("live=%d disposed=%d", r.Live(), r.Disposed())
	}

	clk.Advance(31 * time.Second)
	r.Sweep()
	r.Sweep()
	if s.count(domain.WarnUndisposedResource) != 1 {
		t.Fatalf("warnings = %d, want exactly one", s.count(domain.WarnUndisposedResource))
	}
	if got := r.Undisposed(); len(got) != 1 || got[0] != "controller#1" {
		t.Fatalf("Undisposed = %v", got)
	}
	if s.last().Source != "controller#1" {
		t.Fatalf("source = %q", s.last().Source)
	}

	r.Dispose("controller#1")
	if len(r.Undisposed()) != 0 || r.Live() != 0 {
		t.Fatal("disposed resource still reported")
	}
}

func TestResource_YoungResourcesNotFlagged(t *testing.T) {
	clk := newClock()
	var s sink
	r := NewResource(0, clk.Now, s.emit)
	r.Start()
	r.Track("stream")
	clk.Advance(59 * time.Second)
	r.Sweep()
	if len(s.got) != 0 {
		t.Fatalf("unexpected warnings %+v", s.got)
	}
}

func TestResource_StoppedAndReset(t *testing.T) {
	r := NewResource(time.Second, newClock().Now, nil)
	r.Track("x")
	if r.Live() != 0 {
		t.Fatal("stopped tracker accepted Track")
	}
	r.Start()
	r.Track("x")
	r.Dispose("x")
	r.Track("y")
	r.Reset()
	if r.Live() != 0 || r.Disposed() != 0 {
		t.Fatal("Reset left state behind")
	}
}
