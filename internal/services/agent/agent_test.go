package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vshulcz/Perfwatch/internal/config"
	"github.com/vshulcz/Perfwatch/internal/domain"
)

type fakeCollector struct {
	startErr error
	interval time.Duration
	queue    []domain.EventEnvelope
	mu       sync.Mutex
	started  bool
	stopped  bool
}

func (f *fakeCollector) Start(_ context.Context, interval time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	f.interval = interval
	return f.startErr
}

func (f *fakeCollector) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeCollector) Drain() []domain.EventEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

func (f *fakeCollector) push(n int) {
	f.mu.Lock()
	f.queue = append(f.queue, mkBatch(n)...)
	f.mu.Unlock()
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{"empty", 0, 3, nil},
		{"exact", 6, 3, []int{3, 3}},
		{"remainder", 7, 3, []int{3, 3, 1}},
		{"small", 2, 3, []int{2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := chunks(mkBatch(tc.n), tc.size)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d chunks, want %d", len(got), len(tc.want))
			}
			for i, c := range got {
				if len(c) != tc.want[i] {
					t.Fatalf("chunk %d len %d, want %d", i, len(c), tc.want[i])
				}
			}
		})
	}
}

func TestService_RunShipsAndFlushesOnShutdown(t *testing.T) {
	col := &fakeCollector{}
	pub := &concPublisher{}
	cfg := config.AgentConfig{PollInterval: time.Millisecond, ReportInterval: 5 * time.Millisecond, RateLimit: 2}
	svc := New(cfg, col, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	col.push(maxBatch + 10)
	deadline := time.Now().Add(time.Second)
	for {
		pub.mu.Lock()
		n := pub.events
		pub.mu.Unlock()
		if n == maxBatch+10 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("shipped %d events", n)
		}
		time.Sleep(time.Millisecond)
	}

	col.push(3)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pub.events != maxBatch+13 {
		t.Fatalf("events after shutdown = %d, want %d", pub.events, maxBatch+13)
	}
	if !col.started || !col.stopped || col.interval != time.Millisecond {
		t.Fatalf("collector lifecycle: %+v", col)
	}
}

func TestService_StartError(t *testing.T) {
	col := &fakeCollector{startErr: errors.New("no sampler")}
	svc := New(config.AgentConfig{ReportInterval: time.Second}, col, &concPublisher{}, nil)
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
}
