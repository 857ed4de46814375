package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
)

type Credentials struct {
	User        string
	Password    string
	Cluster     string
	Provider    string
	Domain      string
	Server      string
	Application string
	Locale      string
}

func (c Credentials) complete() bool {
	return c.User != "" && c.Password != ""
}

func (c Credentials) hints() map[domain.Key]string {
	return map[domain.Key]string{
		domain.KeyProvider: c.Provider,
		domain.KeyDomain:   c.Domain,
		domain.KeyServer:   c.Server,
		domain.KeyCluster:  c.Cluster,
	}
}

func (c Credentials) pool() []domain.Arg {
	locale := c.Locale
	if locale == "" {
		locale = "en"
	}
	return []domain.Arg{
		{Type: domain.TypeUser, Value: c.User},
		{Type: domain.TypePassword, Value: c.Password},
		{Type: domain.TypeCluster, Value: c.Cluster},
		{Type: domain.TypeLocale, Value: locale},
		{Type: domain.TypeApplication, Value: c.Application},
	}
}

// Broker obtains and releases the server session of an invocation.
type Broker struct {
	prober   *Prober
	registry *Registry
}

func NewBroker(prober *Prober, registry *Registry) *Broker {
	return &Broker{prober: prober, registry: registry}
}

// Login returns (nil, nil) when user or password is empty; the operation is
// then expected to receive the raw credentials itself.
func (b *Broker) Login(ctx context.Context, creds Credentials) (*domain.Session, error) {
	if !creds.complete() {
		return nil, nil
	}

	pool := creds.pool()
	binding, result, err := b.prober.Resolve(ctx, Probe{
		Target:     "login",
		Candidates: b.registry.LoginRoutes(),
		Hints:      creds.hints(),
		Args: func(_ domain.CapabilityDescriptor, shape domain.Shape) []any {
			return domain.Coerce(shape, pool)
		},
		Accept: acceptSession,
	})
	if err != nil {
		return nil, &domain.AuthError{Reason: "no login route accepted the credentials", Err: err}
	}

	switch v := result.(type) {
	case domain.ObjectRef:
		route := binding.Name()
		session := domain.NewSession(v, "", route, func(ctx context.Context) error {
			return closeWith(ctx, binding, v)
		})
		logtrace.Info(ctx, "session opened", logtrace.Fields{logtrace.FieldRoute: route})
		return session, nil
	case string:
		defer b.closeBinding(ctx, binding)
		return b.openSession(ctx, v, creds)
	default:
		b.closeBinding(ctx, binding)
		return nil, &domain.AuthError{Reason: fmt.Sprintf("login returned unexpected %T", result)}
	}
}

// openSession exchanges an authentication token for a session.
func (b *Broker) openSession(ctx context.Context, token string, creds Credentials) (*domain.Session, error) {
	pool := append([]domain.Arg{{Type: domain.TypeToken, Value: token}}, creds.pool()...)
	binding, result, err := b.prober.Resolve(ctx, Probe{
		Target:     "session",
		Candidates: b.registry.SessionOpeners(),
		Args: func(_ domain.CapabilityDescriptor, shape domain.Shape) []any {
			return domain.Coerce(shape, pool)
		},
		Accept: func(result any) error {
			if _, ok := result.(domain.ObjectRef); !ok {
				return fmt.Errorf("session opener returned %T", result)
			}
			return nil
		},
	})
	if err != nil {
		return nil, &domain.AuthError{Reason: "token was not exchanged for a session", Err: err}
	}

	ref := result.(domain.ObjectRef)
	route := binding.Name()
	logtrace.Info(ctx, "session opened", logtrace.Fields{logtrace.FieldRoute: route})
	return domain.NewSession(ref, token, route, func(ctx context.Context) error {
		return closeWith(ctx, binding, ref)
	}), nil
}

// Release closes the session. Failures are logged and never fail the
// invocation.
func (b *Broker) Release(ctx context.Context, session *domain.Session) {
	if session == nil {
		return
	}
	if err := session.Close(ctx); err != nil {
		logtrace.Warn(ctx, "session release failed", logtrace.Fields{
			logtrace.FieldRoute: session.Route,
			logtrace.FieldError: err,
		})
	}
}

func (b *Broker) closeBinding(ctx context.Context, binding *Binding) {
	if err := binding.Close(ctx); err != nil {
		logtrace.Debug(ctx, "release login binding", logtrace.Fields{logtrace.FieldError: err})
	}
}

// closeWith calls the descriptor's release method, if any, and then frees the
// remote objects held by the binding.
func closeWith(ctx context.Context, binding *Binding, ref domain.ObjectRef) error {
	var releaseErr error
	if method := binding.Descriptor.Release; method != "" {
		if _, err := binding.Capability.Call(ctx, method, []any{ref}); err != nil {
			releaseErr = fmt.Errorf("%s: %w", method, err)
		}
	}
	return errors.Join(releaseErr, binding.Close(ctx))
}

func acceptSession(result any) error {
	switch v := result.(type) {
	case nil:
		return errors.New("login returned no session")
	case string:
		if v == "" {
			return errors.New("login returned an empty token")
		}
	case domain.ObjectRef:
		if v.IsZero() {
			return errors.New("login returned an empty session reference")
		}
	}
	return nil
}
