package runtime

import (
	"sync"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

// pending is a bounded queue of collected envelopes; the oldest are dropped when full.
type pending struct {
	items   []domain.EventEnvelope
	limit   int
	polls   int64
	dropped int64
	mu      sync.Mutex
}

func newPending(limit int) *pending {
	return &pending{limit: limit}
}

func (p *pending) Add(env domain.EventEnvelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	if len(p.items) >= p.limit {
		p.items = p.items[1:]
		p.dropped++
	}
	p.items = append(p.items, env)
}

func (p *pending) Drain() []domain.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.items
	p.items = nil
	return out
}

func (p *pending) Stats() (polls, dropped int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls, p.dropped
}
