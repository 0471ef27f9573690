package ports

import (
	"context"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

type ReportStore interface {
	Save(ctx context.Context, r domain.Report) (string, error)
	Get(ctx context.Context, id string) (domain.Report, error)
	List(ctx context.Context, limit int) ([]domain.StoredReport, error)
	Ping(ctx context.Context) error
}

type ReportPersister interface {
	Save(ctx context.Context, r domain.Report) error
	Load(ctx context.Context) (domain.Report, error)
}
