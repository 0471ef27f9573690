package suggest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

type fakeAugmenter struct {
	release chan struct{}
	err     error
	result  []domain.Suggestion
	calls   atomic.Int32
	panics  bool
}

func (f *fakeAugmenter) Analyze(context.Context, domain.MetricsSnapshot) ([]domain.Suggestion, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("augmenter crashed")
	}
	return f.result, f.err
}

var lowFPS = domain.MetricsSnapshot{FPS: 45}

func TestEngine_MergesLastCompletedResult(t *testing.T) {
	aug := &fakeAugmenter{result: []domain.Suggestion{{Title: "remote", Impact: domain.ImpactCritical}}}
	e := NewEngine(aug, nil)

	first := e.Generate(context.Background(), lowFPS)
	if len(first) != 1 || first[0].Title == "remote" {
		t.Fatalf("first pull must not wait for the augmenter: %+v", first)
	}
	e.Wait()

	second := e.Generate(context.Background(), lowFPS)
	e.Wait()
	if len(second) != 2 || second[0].Title != "remote" {
		t.Fatalf("augmented result not merged and ranked: %+v", second)
	}
}

func TestEngine_OneCallInFlight(t *testing.T) {
	aug := &fakeAugmenter{release: make(chan struct{})}
	e := NewEngine(aug, nil)

	for range 5 {
		e.Generate(context.Background(), lowFPS)
	}
	close(aug.release)
	e.Wait()
	if got := aug.calls.Load(); got != 1 {
		t.Fatalf("augmenter calls = %d, want 1", got)
	}

	e.Generate(context.Background(), lowFPS)
	e.Wait()
	if got := aug.calls.Load(); got != 2 {
		t.Fatalf("augmenter calls after completion = %d, want 2", got)
	}
}

func TestEngine_FailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name string
		aug  *fakeAugmenter
	}{
		{"error", &fakeAugmenter{err: errors.New("503")}},
		{"panic", &fakeAugmenter{panics: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine(tc.aug, nil)
			e.Generate(context.Background(), lowFPS)
			e.Wait()
			got := e.Generate(context.Background(), lowFPS)
			e.Wait()
			if len(got) != 1 || got[0].Category != domain.CategoryRendering {
				t.Fatalf("heuristics must survive augmenter failure: %+v", got)
			}
			if len(e.Augmented()) != 0 {
				t.Fatal("failed call stored a result")
			}
		})
	}
}

func TestEngine_ErrorKeepsPreviousResult(t *testing.T) {
	aug := &fakeAugmenter{result: []domain.Suggestion{{Title: "remote", Impact: domain.ImpactLow}}}
	e := NewEngine(aug, nil)
	e.Generate(context.Background(), lowFPS)
	e.Wait()

	aug.err = errors.New("timeout")
	e.Generate(context.Background(), lowFPS)
	e.Wait()
	if got := e.Augmented(); len(got) != 1 || got[0].Title != "remote" {
		t.Fatalf("previous result lost: %+v", got)
	}
}

func TestEngine_ResetDiscardsPendingResult(t *testing.T) {
	aug := &fakeAugmenter{
		release: make(chan struct{}),
		result:  []domain.Suggestion{{Title: "stale"}},
	}
	e := NewEngine(aug, nil)
	e.Generate(context.Background(), lowFPS)
	e.Reset()
	close(aug.release)
	e.Wait()
	if got := e.Augmented(); len(got) != 0 {
		t.Fatalf("result from before Reset was applied: %+v", got)
	}
}

func TestEngine_CancelledRequestStillCompletes(t *testing.T) {
	aug := &fakeAugmenter{result: []domain.Suggestion{{Title: "remote"}}}
	e := NewEngine(aug, nil)
	ctx, cancel := context.WithCancel(context.Background())
	e.Generate(ctx, lowFPS)
	cancel()
	e.Wait()
	if len(e.Augmented()) != 1 {
		t.Fatal("augmenter result dropped after caller cancelled")
	}
}
