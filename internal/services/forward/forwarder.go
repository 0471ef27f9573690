// Package forward ships warnings to external sinks without blocking the reporting path.
package forward

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/warnings"
)

// DefaultQueueSize bounds the number of warnings waiting for delivery.
const DefaultQueueSize = 256

// Forwarder is a warnings.Listener that queues warnings and delivers them to sinks from a
// single background worker. When the queue is full the warning is dropped and counted.
type Forwarder struct {
	subject     *Subject
	log         *zap.Logger
	queue       chan Event
	host        string
	minSeverity domain.Severity
	dropped     atomic.Int64
	sent        atomic.Int64
	wg          sync.WaitGroup
	mu          sync.RWMutex
	closed      bool
}

var _ warnings.Listener = (*Forwarder)(nil)

// Config tunes a Forwarder.
type Config struct {
	Host        string
	MinSeverity domain.Severity
	QueueSize   int
}

// New builds a forwarder delivering to sinks. Sink failures are logged and never retried.
func New(cfg Config, log *zap.Logger, sinks ...Sink) *Forwarder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	f := &Forwarder{
		subject:     NewSubject(sinks...),
		log:         log,
		queue:       make(chan Event, cfg.QueueSize),
		host:        cfg.Host,
		minSeverity: cfg.MinSeverity,
	}
	f.subject.SetErrorHandler(func(err error) {
		f.log.Warn("forward: sink failed", zap.Error(err))
	})
	return f
}

// Add registers another sink.
func (f *Forwarder) Add(s Sink) { f.subject.Attach(s) }

// Sinks reports the number of registered sinks.
func (f *Forwarder) Sinks() int { return f.subject.Len() }

// Start launches the delivery worker. It drains the queue until Stop.
func (f *Forwarder) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for ev := range f.queue {
			f.subject.Publish(ctx, ev)
			f.sent.Add(1)
		}
	}()
}

// Notify enqueues the warning. It never blocks.
func (f *Forwarder) Notify(_ context.Context, w domain.Warning) error {
	if w.Severity.Rank() < f.minSeverity.Rank() {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		f.dropped.Add(1)
		return nil
	}
	select {
	case f.queue <- EventOf(w, f.host):
	default:
		if f.dropped.Add(1) == 1 {
			f.log.Warn("forward: queue full, dropping warnings", zap.Int("capacity", cap(f.queue)))
		}
	}
	return nil
}

// Stop closes the queue and waits until queued warnings are delivered. It is idempotent.
func (f *Forwarder) Stop() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()
	f.wg.Wait()
}

// Stats returns the delivered and dropped counts.
func (f *Forwarder) Stats() (sent, dropped int64) {
	return f.sent.Load(), f.dropped.Load()
}
