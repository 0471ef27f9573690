package ports

import (
	"context"
	"time"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

type MemorySampler interface {
	SampleMB(ctx context.Context) (float64, error)
}

type EventCollector interface {
	Start(ctx context.Context, interval time.Duration) error
	Stop()
	Drain() []domain.EventEnvelope
}

type EventPublisher interface {
	SendEvents(ctx context.Context, items []domain.EventEnvelope) error
}
