package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
)

// Binding is the candidate and signature that answered a probe. The caller
// owns it and must Close it.
type Binding struct {
	Descriptor domain.CapabilityDescriptor
	Shape      domain.Shape
	Capability ports.Capability
}

// Name is the qualified name of the bound candidate.
func (b *Binding) Name() string {
	if b == nil {
		return ""
	}
	return b.Descriptor.QualifiedName()
}

// Close releases the bound instance. It is safe on a nil Binding.
func (b *Binding) Close(ctx context.Context) error {
	if b == nil || b.Capability == nil {
		return nil
	}
	return b.Capability.Close(ctx)
}

// Probe describes one resolution: the ordered candidates, how to build the
// arguments of each signature and when a result counts.
type Probe struct {
	Target     string
	Candidates []domain.CapabilityDescriptor
	Session    *domain.Session
	Hints      map[domain.Key]string
	Args       func(desc domain.CapabilityDescriptor, shape domain.Shape) []any
	// Accept rejects a result that returned without error but is unusable.
	Accept func(result any) error
	// StopOn ends probing on errors that later candidates cannot fix.
	StopOn func(err error) bool
}

// Prober resolves a Probe against the remote surface through a locator.
type Prober struct {
	locator ports.CapabilityLocator
}

// NewProber returns a Prober that locates candidates with locator.
func NewProber(locator ports.CapabilityLocator) *Prober {
	return &Prober{locator: locator}
}

// Resolve tries the candidates in order, and each candidate's shapes in
// order, until one invocation succeeds. No candidate after the winner is
// touched. Every failed instance is closed before the next attempt.
func (p *Prober) Resolve(ctx context.Context, probe Probe) (*Binding, any, error) {
	var attempts []domain.Attempt

	for _, desc := range probe.Candidates {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		fields := logtrace.Fields{logtrace.FieldModule: probe.Target, logtrace.FieldCapability: desc.QualifiedName()}

		capability, err := p.locator.Locate(ctx, ports.LocateRequest{Descriptor: desc, Session: probe.Session, Hints: probe.Hints})
		if err != nil {
			attempts = append(attempts, domain.Attempt{Capability: desc.QualifiedName(), Err: err})
			logtrace.Debug(ctx, "capability not available", logtrace.WithFields(fields, logtrace.Fields{logtrace.FieldError: err}))
			if probe.StopOn != nil && probe.StopOn(err) {
				return nil, nil, err
			}
			continue
		}

		shapes := desc.Shapes
		if len(shapes) == 0 {
			shapes = []domain.Shape{{}}
		}

		var shapeErrs []error
		for _, shape := range shapes {
			var args []any
			if probe.Args != nil {
				args = probe.Args(desc, shape)
			}

			result, err := capability.Invoke(ctx, shape, args)
			if err == nil && probe.Accept != nil {
				err = probe.Accept(result)
			}
			if err == nil {
				logtrace.Info(ctx, "capability bound", logtrace.WithFields(fields, logtrace.Fields{logtrace.FieldShape: shape.String()}))
				return &Binding{Descriptor: desc, Shape: shape, Capability: capability}, result, nil
			}

			shapeErrs = append(shapeErrs, fmt.Errorf("%s: %w", shape, err))
			logtrace.Debug(ctx, "capability attempt failed", logtrace.WithFields(fields, logtrace.Fields{
				logtrace.FieldShape: shape.String(),
				logtrace.FieldError: err,
			}))

			if probe.StopOn != nil && probe.StopOn(err) {
				p.discard(ctx, capability)
				return nil, nil, err
			}
		}

		p.discard(ctx, capability)
		attempts = append(attempts, domain.Attempt{Capability: desc.QualifiedName(), Shapes: desc.Shapes, Err: joinShapeErrors(shapeErrs)})
	}

	return nil, nil, &domain.BindError{Target: probe.Target, Attempts: attempts}
}

func (p *Prober) discard(ctx context.Context, capability ports.Capability) {
	if err := capability.Close(ctx); err != nil {
		logtrace.Debug(ctx, "release failed capability", logtrace.Fields{
			logtrace.FieldObjectID: capability.Handle().ID,
			logtrace.FieldError:    err,
		})
	}
}

// joinShapeErrors keeps a single-shape failure unwrapped so its message stays
// short.
func joinShapeErrors(errs []error) error {
	if len(errs) == 1 {
		return errors.Unwrap(errs[0])
	}
	return errors.Join(errs...)
}
