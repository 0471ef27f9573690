// Package agent implements the sampling agent that ships memory events to the server.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/config"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/ports"
)

// maxBatch caps the envelopes sent in one request.
const maxBatch = 256

// Service periodically drains collected events and ships them to the server.
type Service struct {
	collector ports.EventCollector
	pub       ports.EventPublisher
	log       *zap.Logger
	sender    *BatchPublisher
	cfg       config.AgentConfig
}

// New wires together the agent configuration, collector, and publisher.
func New(cfg config.AgentConfig, c ports.EventCollector, p ports.EventPublisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, collector: c, pub: p, log: log}
}

// Run starts sampling, enqueues batches every report interval, and blocks until ctx is done.
// Events still queued at shutdown are sent once more before Run returns.
func (r *Service) Run(ctx context.Context) error {
	if err := r.collector.Start(ctx, r.cfg.PollInterval); err != nil {
		return err
	}
	defer r.collector.Stop()

	r.sender = NewBatchPublisher(r.pub, r.cfg.RateLimit, r.log)
	r.sender.Start(context.WithoutCancel(ctx))
	defer r.sender.Stop()

	ticker := time.NewTicker(r.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.enqueue()
			return nil
		case <-ticker.C:
			r.enqueue()
		}
	}
}

func (r *Service) enqueue() {
	events := r.collector.Drain()
	if len(events) == 0 {
		return
	}
	r.log.Debug("agent: reporting events", zap.Int("count", len(events)))
	for _, chunk := range chunks(events, maxBatch) {
		r.sender.Submit(chunk)
	}
}

func chunks(items []domain.EventEnvelope, size int) [][]domain.EventEnvelope {
	var out [][]domain.EventEnvelope
	for len(items) > size {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
