package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
)

// objectCapability invokes a method on a single acquired object. Keyed
// actions and session-bound object models share it; they differ only in
// how the object is built.
type objectCapability struct {
	surface ports.RemoteSurface
	desc    domain.CapabilityDescriptor
	obj     domain.ObjectRef
}

var _ ports.Capability = (*objectCapability)(nil)

// newActionCapability instantiates an action class with its no-argument
// constructor. The class exposes a single execute(Map) entry point.
func newActionCapability(ctx context.Context, surface ports.RemoteSurface, desc domain.CapabilityDescriptor) (*objectCapability, error) {
	obj, err := surface.Acquire(ctx, ports.AcquireRequest{Class: desc.Class, Factory: desc.Factory})
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", desc.Class, err)
	}
	return &objectCapability{surface: surface, desc: desc, obj: obj}, nil
}

// newObjectCapability instantiates an object model bound to the session.
func newObjectCapability(ctx context.Context, surface ports.RemoteSurface, desc domain.CapabilityDescriptor, session *domain.Session) (*objectCapability, error) {
	var pool []domain.Arg
	if session != nil {
		pool = append(pool, domain.Arg{Type: domain.TypeSession, Value: session.Ref})
	}
	for _, slot := range desc.Ctor {
		if slot == domain.TypeSession && session == nil {
			return nil, fmt.Errorf("%w: %s needs a session", domain.ErrCapabilityNotFound, desc.QualifiedName())
		}
	}

	obj, err := surface.Acquire(ctx, ports.AcquireRequest{
		Class:   desc.Class,
		Factory: desc.Factory,
		Args:    domain.Coerce(desc.Ctor, pool),
	})
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", desc.Class, err)
	}
	return &objectCapability{surface: surface, desc: desc, obj: obj}, nil
}

func (c *objectCapability) Handle() domain.ObjectRef { return c.obj }

func (c *objectCapability) Invoke(ctx context.Context, _ domain.Shape, args []any) (any, error) {
	return c.Call(ctx, c.desc.Method, args)
}

func (c *objectCapability) Call(ctx context.Context, method string, args []any) (any, error) {
	return c.surface.Call(ctx, c.obj, method, args)
}

func (c *objectCapability) Close(ctx context.Context) error {
	if c.obj.IsZero() {
		return nil
	}
	err := c.surface.Release(ctx, c.obj)
	c.obj = domain.ObjectRef{}
	if err != nil {
		return fmt.Errorf("release %s: %w", c.desc.Class, err)
	}
	return nil
}

// loginCapability walks factory, security object and login method. Hints
// are applied to both the factory and the security object.
type loginCapability struct {
	surface  ports.RemoteSurface
	desc     domain.CapabilityDescriptor
	factory  domain.ObjectRef
	security domain.ObjectRef
}

var _ ports.Capability = (*loginCapability)(nil)

func newLoginCapability(ctx context.Context, surface ports.RemoteSurface, desc domain.CapabilityDescriptor, hints map[domain.Key]string) (*loginCapability, error) {
	factory, err := surface.Acquire(ctx, ports.AcquireRequest{Class: desc.Class, Factory: desc.Factory})
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", desc.Class, err)
	}

	c := &loginCapability{surface: surface, desc: desc, factory: factory}
	applyHints(ctx, surface, factory, hints)

	if desc.Via == "" {
		return c, nil
	}

	result, err := surface.Call(ctx, factory, desc.Via, nil)
	if err == nil {
		ref, ok := result.(domain.ObjectRef)
		if !ok || ref.IsZero() {
			err = fmt.Errorf("%w: %s returned %T", domain.ErrCapabilityNotFound, desc.Via, result)
		} else {
			c.security = ref
		}
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("resolve %s: %w", desc.Via, err), c.Close(ctx))
	}

	applyHints(ctx, surface, c.security, hints)
	return c, nil
}

func (c *loginCapability) target() domain.ObjectRef {
	if !c.security.IsZero() {
		return c.security
	}
	return c.factory
}

func (c *loginCapability) Handle() domain.ObjectRef { return c.target() }

func (c *loginCapability) Invoke(ctx context.Context, _ domain.Shape, args []any) (any, error) {
	return c.Call(ctx, c.desc.Method, args)
}

func (c *loginCapability) Call(ctx context.Context, method string, args []any) (any, error) {
	return c.surface.Call(ctx, c.target(), method, args)
}

func (c *loginCapability) Close(ctx context.Context) error {
	var errs []error
	for _, obj := range []domain.ObjectRef{c.security, c.factory} {
		if obj.IsZero() {
			continue
		}
		if err := c.surface.Release(ctx, obj); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", obj.ID, err))
		}
	}
	c.security, c.factory = domain.ObjectRef{}, domain.ObjectRef{}
	return errors.Join(errs...)
}
