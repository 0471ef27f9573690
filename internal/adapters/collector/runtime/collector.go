package runtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// DefaultQueueSize bounds the readings held between two Drain calls.
const DefaultQueueSize = 1024

// Collector periodically samples memory and queues the readings as memory envelopes.
type Collector struct {
	sampler ports.MemorySampler
	log     *zap.Logger
	queue   *pending
	now     func() time.Time
	stop    chan struct{}
	wg      sync.WaitGroup
}

var _ ports.EventCollector = (*Collector)(nil)

// New creates a Collector around sampler.
func New(sampler ports.MemorySampler, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{
		sampler: sampler,
		log:     log,
		queue:   newPending(DefaultQueueSize),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Start launches the sampling goroutine.
func (c *Collector) Start(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-t.C:
				c.poll(ctx)
			}
		}
	}()
	return nil
}

func (c *Collector) poll(ctx context.Context) {
	mb, err := c.sampler.SampleMB(ctx)
	if err != nil {
		c.log.Debug("memory sample failed", zap.Error(err))
		return
	}
	c.queue.Add(domain.EnvelopeOf(domain.MemorySample{UsageMB: mb, Timestamp: c.now()}))
}

// Stop signals the sampling goroutine to halt and waits for it.
func (c *Collector) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	c.wg.Wait()
}

// Drain returns and forgets every queued envelope.
func (c *Collector) Drain() []domain.EventEnvelope { return c.queue.Drain() }

// Stats reports successful polls and readings dropped because the queue was full.
func (c *Collector) Stats() (polls, dropped int64) { return c.queue.Stats() }
