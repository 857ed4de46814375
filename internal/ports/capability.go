package ports

import (
	"context"

	"github.com/bnema/hfmctl/internal/domain"
)

// Capability is one located candidate, bound to its remote object for the
// duration of a single attempt.
type Capability interface {
	Handle() domain.ObjectRef
	Invoke(ctx context.Context, shape domain.Shape, args []any) (any, error)
	Call(ctx context.Context, method string, args []any) (any, error)
	Close(ctx context.Context) error
}

type LocateRequest struct {
	Descriptor domain.CapabilityDescriptor
	Session    *domain.Session
	Hints      map[domain.Key]string
}

// CapabilityLocator instantiates a fresh capability for every request.
type CapabilityLocator interface {
	Locate(ctx context.Context, req LocateRequest) (Capability, error)
}
