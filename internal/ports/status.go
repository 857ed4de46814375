package ports

import (
	"context"

	"github.com/bnema/hfmctl/internal/domain"
)

type StatusQuery interface {
	Query(ctx context.Context, ids []int) ([]domain.TaskProgress, error)
}

type ProgressReporter interface {
	ReportProgress(ctx context.Context, progress domain.TaskProgress)
}

type ProgressReporterFunc func(ctx context.Context, progress domain.TaskProgress)

func (f ProgressReporterFunc) ReportProgress(ctx context.Context, progress domain.TaskProgress) {
	f(ctx, progress)
}

type NopProgressReporter struct{}

func (NopProgressReporter) ReportProgress(context.Context, domain.TaskProgress) {}
