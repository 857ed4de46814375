package ports

import (
	"context"

	"github.com/bnema/hfmctl/internal/domain"
)

type AcquireRequest struct {
	Class   string
	Factory string
	Args    []any
}

// RemoteSurface is the server's reflective object surface. Implementations
// report a missing class or method with domain.ErrCapabilityNotFound, a
// rejected argument list with domain.ErrSignatureMismatch and server faults
// with *domain.RemoteError.
type RemoteSurface interface {
	Acquire(ctx context.Context, req AcquireRequest) (domain.ObjectRef, error)
	Call(ctx context.Context, obj domain.ObjectRef, method string, args []any) (any, error)
	Release(ctx context.Context, obj domain.ObjectRef) error
}
