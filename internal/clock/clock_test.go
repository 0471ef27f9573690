package clock

import (
	"testing"
	"time"
)

func TestManual_AdvanceFiresDueTickers(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)
	tk := m.NewTicker(10 * time.Second)
	defer tk.Stop()

	m.Advance(5 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("ticker fired before its interval")
	default:
	}

	m.Advance(5 * time.Second)
	select {
	case got := <-tk.C():
		if !got.Equal(start.Add(10 * time.Second)) {
			t.Fatalf("tick time = %v, want %v", got, start.Add(10*time.Second))
		}
	default:
		t.Fatal("expected a tick after 10s")
	}

	if !m.Now().Equal(start.Add(10 * time.Second)) {
		t.Fatalf("Now = %v", m.Now())
	}
}

func TestManual_StoppedTickerIsSilent(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	tk := m.NewTicker(time.Second)
	tk.Stop()
	tk.Stop()

	m.Advance(3 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestManual_SlowReaderDropsTicks(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	tk := m.NewTicker(time.Second)
	defer tk.Stop()

	for range 5 {
		m.Advance(time.Second)
	}
	<-tk.C()
	select {
	case <-tk.C():
		t.Fatal("expected buffered channel to hold a single tick")
	default:
	}
}

func TestManual_SetDoesNotFire(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	tk := m.NewTicker(time.Second)
	defer tk.Stop()

	m.Set(time.Unix(100, 0))
	select {
	case <-tk.C():
		t.Fatal("Set must not fire tickers")
	default:
	}
	m.Advance(time.Second)
	select {
	case <-tk.C():
	default:
		t.Fatal("expected tick one interval after Set")
	}
}
