package remote

import (
	"context"
	"fmt"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
)

// Locator builds one adapter per call pattern over a remote surface. Every
// Locate acquires fresh remote objects; nothing is cached between attempts.
type Locator struct {
	surface ports.RemoteSurface
}

var _ ports.CapabilityLocator = (*Locator)(nil)

func NewLocator(surface ports.RemoteSurface) *Locator {
	return &Locator{surface: surface}
}

func (l *Locator) Locate(ctx context.Context, req ports.LocateRequest) (ports.Capability, error) {
	desc := req.Descriptor

	switch desc.Pattern {
	case domain.PatternAction, "":
		return newActionCapability(ctx, l.surface, desc)
	case domain.PatternObject:
		return newObjectCapability(ctx, l.surface, desc, req.Session)
	case domain.PatternLogin:
		return newLoginCapability(ctx, l.surface, desc, req.Hints)
	default:
		return nil, fmt.Errorf("locate %s: unsupported call pattern %q", desc.QualifiedName(), desc.Pattern)
	}
}
