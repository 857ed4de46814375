package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/hfmctl/internal/adapters/secrets/file"
	passstore "github.com/bnema/hfmctl/internal/adapters/secrets/pass"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
)

type Backend struct {
	Name  string
	Store ports.SecretStore
}

// Store tries its backends in order. Reads and writes stop at the first
// backend that succeeds; deletes reach every backend.
type Store struct {
	backends []Backend
}

var _ ports.SecretStore = (*Store)(nil)

var errNoBackends = errors.New("secret store chain has no backends")

func NewStore(backends ...Backend) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for _, backend := range backends {
		if backend.Store == nil {
			return nil, fmt.Errorf("secret backend %q is nil", backend.Name)
		}
	}

	return &Store{backends: backends}, nil
}

// NewPassFirstWithFileFallback builds the default chain. An empty hexKey keeps
// file secrets in plain text.
func NewPassFirstWithFileFallback(passPrefix string, fileRoot string, hexKey string) (*Store, error) {
	fileStore := filestore.NewStore(fileRoot)
	if hexKey != "" {
		encrypted, err := filestore.NewEncryptedStore(fileRoot, hexKey)
		if err != nil {
			return nil, err
		}
		fileStore = encrypted
	}

	return NewStore(
		Backend{Name: "pass", Store: passstore.NewStore(passPrefix)},
		Backend{Name: "file", Store: fileStore},
	)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if shouldStop(err) {
			return err
		}
		logtrace.Debug(ctx, "secret backend put failed", logtrace.Fields{logtrace.FieldModule: backend.Name, logtrace.FieldError: err})
		errs = append(errs, fmt.Errorf("%s backend put: %w", backend.Name, err))
	}

	return errors.Join(errs...)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for _, backend := range s.backends {
		value, err := backend.Store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if shouldStop(err) {
			return "", err
		}
		logtrace.Debug(ctx, "secret backend get failed", logtrace.Fields{logtrace.FieldModule: backend.Name, logtrace.FieldError: err})
		errs = append(errs, fmt.Errorf("%s backend get: %w", backend.Name, err))
	}

	return "", errors.Join(errs...)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, backend := range s.backends {
		err := backend.Store.Delete(ctx, key)
		if err == nil {
			continue
		}
		if shouldStop(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("%s backend delete: %w", backend.Name, err))
	}

	if len(errs) == len(s.backends) {
		return errors.Join(errs...)
	}
	return nil
}

func shouldStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
