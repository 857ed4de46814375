package toml

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
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type profileFormat int

const (
	formatTOML profileFormat = iota
	formatYAML
)

// ProfileRepository reads and writes capability profiles. Files ending in
// .yaml or .yml are YAML; everything else is TOML.
type ProfileRepository struct {
	path   string
	format profileFormat
	mu     *sync.RWMutex
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(path string) (*ProfileRepository, error) {
	if path == "" {
		return nil, errors.New("profile path is empty")
	}
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	format := formatTOML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = formatYAML
	}

	return &ProfileRepository{path: path, format: format, mu: lockForPath(path)}, nil
}

// Load returns an empty profile when the file does not exist.
func (r *ProfileRepository) Load(ctx context.Context) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Profile{}, nil
		}
		return domain.Profile{}, fmt.Errorf("read profile file: %w", err)
	}

	var file profileSchema
	if err := r.unmarshal(data, &file); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile file %s: %w", filepath.Base(r.path), err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.Profile{}, err
	}
	file.applyDefaults()

	return fromProfileSchema(file)
}

func (r *ProfileRepository) Save(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.marshal(toProfileSchema(profile))
	if err != nil {
		return fmt.Errorf("encode profile file: %w", err)
	}

	if err := writeFileAtomic(r.path, data, ".profile-*.tmp"); err != nil {
		return fmt.Errorf("write profile file: %w", err)
	}

	return nil
}

func (r *ProfileRepository) unmarshal(data []byte, out *profileSchema) error {
	if r.format == formatYAML {
		return yaml.Unmarshal(data, out)
	}
	return toml.Unmarshal(data, out)
}

func (r *ProfileRepository) marshal(file profileSchema) ([]byte, error) {
	if r.format == formatYAML {
		return yaml.Marshal(file)
	}
	return toml.Marshal(file)
}
