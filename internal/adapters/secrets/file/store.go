package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/ports"
	"github.com/firdasafridi/gocrypt"
)

const (
	storeDirMode  = 0o700
	secretFileMod = 0o600
	sealedPrefix  = "gocrypt:aes:"
)

// sealed is the unit gocrypt encrypts; the tag selects the AES cipher.
type sealed struct {
	Value string `gocrypt:"aes"`
}

// Store keeps one secret per file below root. When built with an encryption
// key the contents are AES sealed.
type Store struct {
	root string
	mu   sync.RWMutex

	seal   func(string) (string, error)
	unseal func(string) (string, error)
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// NewEncryptedStore seals secrets with AES using a 64 character hex key.
func NewEncryptedStore(root string, hexKey string) (*Store, error) {
	aesOpt, err := gocrypt.NewAESOpt(hexKey)
	if err != nil {
		return nil, fmt.Errorf("init secret encryption: %w", err)
	}
	gc := gocrypt.New(&gocrypt.Option{AESOpt: aesOpt})

	store := NewStore(root)
	store.seal = func(plain string) (string, error) {
		entity := sealed{Value: plain}
		if err := gc.Encrypt(&entity); err != nil {
			return "", err
		}
		return sealedPrefix + entity.Value, nil
	}
	store.unseal = func(stored string) (string, error) {
		entity := sealed{Value: strings.TrimPrefix(stored, sealedPrefix)}
		if err := gc.Decrypt(&entity); err != nil {
			return "", err
		}
		return entity.Value, nil
	}

	return store, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	content := value
	if s.seal != nil {
		content, err = s.seal(value)
		if err != nil {
			return fmt.Errorf("encrypt file secret %q: %w", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create file secret directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(content), secretFileMod); err != nil {
		return fmt.Errorf("write file secret %q: %w", key, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file secret %q: %w", key, domain.ErrSecretNotFound)
		}
		return "", fmt.Errorf("read file secret %q: %w", key, err)
	}

	content := string(data)
	if !strings.HasPrefix(content, sealedPrefix) {
		return content, nil
	}
	if s.unseal == nil {
		return "", fmt.Errorf("file secret %q is encrypted and no key is configured", key)
	}

	value, err := s.unseal(content)
	if err != nil {
		return "", fmt.Errorf("decrypt file secret %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.pathForKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file secret %q: %w", key, err)
	}

	return nil
}

func (s *Store) pathForKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("secret key is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid secret key %q", key)
	}

	return filepath.Join(s.root, cleaned), nil
}
