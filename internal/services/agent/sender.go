package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// BatchPublisher sends batches from a bounded worker pool. The pool size caps concurrent
// outgoing requests.
type BatchPublisher struct {
	pub     ports.EventPublisher
	log     *zap.Logger
	jobs    chan []domain.EventEnvelope
	wg      sync.WaitGroup
	workers int
}

// NewBatchPublisher returns a pool of workers sending through pub.
func NewBatchPublisher(pub ports.EventPublisher, workers int, log *zap.Logger) *BatchPublisher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchPublisher{
		pub:     pub,
		log:     log,
		workers: workers,
		jobs:    make(chan []domain.EventEnvelope, workers*2),
	}
}

// Start launches the workers. They exit once Stop closes the queue.
func (bp *BatchPublisher) Start(ctx context.Context) {
	for i := 0; i < bp.workers; i++ {
		bp.wg.Add(1)
		go func(id int) {
			defer bp.wg.Done()
			for batch := range bp.jobs {
				if len(batch) == 0 {
					continue
				}
				if err := bp.pub.SendEvents(ctx, batch); err != nil {
					bp.log.Warn("agent: batch send failed",
						zap.Int("worker", id), zap.Int("events", len(batch)), zap.Error(err))
				}
			}
		}(i + 1)
	}
}

// Stop closes the queue and waits for in-flight batches.
func (bp *BatchPublisher) Stop() {
	close(bp.jobs)
	bp.wg.Wait()
}

// Submit queues a batch, blocking while every worker is busy and the queue is full.
func (bp *BatchPublisher) Submit(batch []domain.EventEnvelope) {
	bp.jobs <- batch
}
