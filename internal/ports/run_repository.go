package ports

import (
	"context"

	"github.com/bnema/hfmctl/internal/domain"
)

type RunRepository interface {
	Append(ctx context.Context, record domain.RunRecord) error
	GetByID(ctx context.Context, id string) (domain.RunRecord, error)
	List(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, error)
}

type ProfileRepository interface {
	Load(ctx context.Context) (domain.Profile, error)
	Save(ctx context.Context, profile domain.Profile) error
}
