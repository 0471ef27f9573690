package ports

import (
	"context"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

// InsightAugmenter supplies suggestions beyond the local rule set. It may be slow and may fail.
type InsightAugmenter interface {
	Analyze(ctx context.Context, snap domain.MetricsSnapshot) ([]domain.Suggestion, error)
}

// TreeWalker walks the host tree and returns its maximum depth and node count.
type TreeWalker func() (depth, nodes int)
