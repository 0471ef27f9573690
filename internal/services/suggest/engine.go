// Package suggest derives optimization suggestions from a metrics snapshot, optionally merged
// with results from an asynchronous insight augmenter.
package suggest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// Engine runs the heuristic rules and manages the augmenter call.
type Engine struct {
	augmenter ports.InsightAugmenter
	log       *zap.Logger
	rules     []Rule
	augmented []domain.Suggestion
	wg        sync.WaitGroup
	mu        sync.Mutex
	gen       uint64
	applied   uint64
	inFlight  bool
}

// NewEngine returns an engine with the default rules. augmenter and log may be nil.
func NewEngine(augmenter ports.InsightAugmenter, log *zap.Logger, rules ...Rule) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{augmenter: augmenter, log: log, rules: rules}
}

// Heuristics runs every rule against snap and ranks the result. It never blocks.
func (e *Engine) Heuristics(snap domain.MetricsSnapshot) []domain.Suggestion {
	var all []domain.Suggestion
	for _, rule := range e.rules {
		all = append(all, rule(snap)...)
	}
	return Rank(all)
}

// Generate returns the heuristic suggestions merged with the last completed augmenter
// result, and triggers a new augmenter call unless one is already pending.
func (e *Engine) Generate(ctx context.Context, snap domain.MetricsSnapshot) []domain.Suggestion {
	out := e.Heuristics(snap)
	e.trigger(ctx, snap)

	e.mu.Lock()
	out = append(out, e.augmented...)
	e.mu.Unlock()
	return Rank(out)
}

// Augmented returns a copy of the last completed augmenter result.
func (e *Engine) Augmented() []domain.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.augmented)
}

func (e *Engine) trigger(ctx context.Context, snap domain.MetricsSnapshot) {
	if e.augmenter == nil {
		return
	}
	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return
	}
	e.inFlight = true
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		res, err := e.analyze(context.WithoutCancel(ctx), snap.Clone())

		e.mu.Lock()
		defer e.mu.Unlock()
		e.inFlight = false
		if err != nil {
			e.log.Debug("insight augmenter failed", zap.Uint64("generation", gen), zap.Error(err))
			return
		}
		if gen <= e.applied {
			return
		}
		e.applied = gen
		e.augmented = slices.Clone(res)
	}()
}

func (e *Engine) analyze(ctx context.Context, snap domain.MetricsSnapshot) (res []domain.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("augmenter panic: %v", r)
		}
	}()
	return e.augmenter.Analyze(ctx, snap)
}

// Wait blocks until a pending augmenter call has finished.
func (e *Engine) Wait() { e.wg.Wait() }

// Reset drops the merged augmenter result. A call pending across Reset is discarded.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.augmented = nil
	e.applied = e.gen
}
