package domain

import (
	"context"
	"sync"
)

// Session is the authenticated server session of one invocation. The
// remote reference is opaque; the closer releases it.
type Session struct {
	Ref   ObjectRef
	Token string
	Route string

	once   sync.Once
	closer func(ctx context.Context) error
}

func NewSession(ref ObjectRef, token string, route string, closer func(ctx context.Context) error) *Session {
	return &Session{Ref: ref, Token: token, Route: route, closer: closer}
}

// Close releases the session. Only the first call reaches the server.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var err error
	s.once.Do(func() {
		if s.closer != nil {
			err = s.closer(ctx)
		}
	})
	return err
}
