package toml

import (
	"fmt"
	"sort"

	"github.com/bnema/hfmctl/internal/domain"
)

const currentProfileVersion = 1

// profileSchema is shared by the TOML and YAML profile formats.
type profileSchema struct {
	Version        int                           `toml:"version" yaml:"version"`
	Build          string                        `toml:"build,omitempty" yaml:"build,omitempty"`
	Operations     map[string][]descriptorSchema `toml:"operations,omitempty" yaml:"operations,omitempty"`
	Login          []descriptorSchema            `toml:"login,omitempty" yaml:"login,omitempty"`
	SessionOpeners []descriptorSchema            `toml:"session_openers,omitempty" yaml:"session_openers,omitempty"`
	StatusQueries  []descriptorSchema            `toml:"status_queries,omitempty" yaml:"status_queries,omitempty"`
	Aliases        map[string][]string           `toml:"aliases,omitempty" yaml:"aliases,omitempty"`
}

type descriptorSchema struct {
	Class   string     `toml:"class" yaml:"class"`
	Factory string     `toml:"factory,omitempty" yaml:"factory,omitempty"`
	Via     string     `toml:"via,omitempty" yaml:"via,omitempty"`
	Method  string     `toml:"method" yaml:"method"`
	Release string     `toml:"release,omitempty" yaml:"release,omitempty"`
	Pattern string     `toml:"pattern,omitempty" yaml:"pattern,omitempty"`
	Ctor    []string   `toml:"ctor,omitempty" yaml:"ctor,omitempty"`
	Shapes  [][]string `toml:"shapes" yaml:"shapes"`
	Builds  []string   `toml:"builds,omitempty" yaml:"builds,omitempty"`
}

func (s *profileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentProfileVersion
	}
}

func (s profileSchema) validateVersion() error {
	if s.Version > currentProfileVersion {
		return fmt.Errorf("unsupported profile schema version %d (current %d)", s.Version, currentProfileVersion)
	}

	return nil
}

func toProfileSchema(profile domain.Profile) profileSchema {
	out := profileSchema{
		Version:        currentProfileVersion,
		Build:          profile.Build,
		Login:          toDescriptorSchemas(profile.Login),
		SessionOpeners: toDescriptorSchemas(profile.SessionOpeners),
		StatusQueries:  toDescriptorSchemas(profile.StatusQueries),
	}

	if len(profile.Operations) > 0 {
		out.Operations = make(map[string][]descriptorSchema, len(profile.Operations))
		for op, candidates := range profile.Operations {
			out.Operations[string(op)] = toDescriptorSchemas(candidates)
		}
	}

	if len(profile.Aliases) > 0 {
		out.Aliases = make(map[string][]string, len(profile.Aliases))
		for key, aliases := range profile.Aliases {
			out.Aliases[string(key)] = append([]string(nil), aliases...)
		}
	}

	return out
}

func fromProfileSchema(file profileSchema) (domain.Profile, error) {
	profile := domain.Profile{Build: file.Build}

	var err error
	if profile.Login, err = fromDescriptorSchemas("login", file.Login); err != nil {
		return domain.Profile{}, err
	}
	if profile.SessionOpeners, err = fromDescriptorSchemas("session_openers", file.SessionOpeners); err != nil {
		return domain.Profile{}, err
	}
	if profile.StatusQueries, err = fromDescriptorSchemas("status_queries", file.StatusQueries); err != nil {
		return domain.Profile{}, err
	}

	if len(file.Operations) > 0 {
		profile.Operations = make(map[domain.Operation][]domain.CapabilityDescriptor, len(file.Operations))
		names := make([]string, 0, len(file.Operations))
		for name := range file.Operations {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			op, err := domain.ParseOperation(name)
			if err != nil {
				return domain.Profile{}, fmt.Errorf("profile operations: %w", err)
			}
			candidates, err := fromDescriptorSchemas("operations."+name, file.Operations[name])
			if err != nil {
				return domain.Profile{}, err
			}
			profile.Operations[op] = candidates
		}
	}

	if len(file.Aliases) > 0 {
		profile.Aliases = make(domain.AliasTable, len(file.Aliases))
		for name, aliases := range file.Aliases {
			key := domain.Key(name)
			if !key.IsCanonical() {
				return domain.Profile{}, fmt.Errorf("profile aliases: unknown parameter %q", name)
			}
			profile.Aliases[key] = append([]string(nil), aliases...)
		}
	}

	return profile, nil
}

func toDescriptorSchemas(descriptors []domain.CapabilityDescriptor) []descriptorSchema {
	if len(descriptors) == 0 {
		return nil
	}

	out := make([]descriptorSchema, 0, len(descriptors))
	for _, desc := range descriptors {
		shapes := make([][]string, 0, len(desc.Shapes))
		for _, shape := range desc.Shapes {
			shapes = append(shapes, shapeStrings(shape))
		}
		out = append(out, descriptorSchema{
			Class:   desc.Class,
			Factory: desc.Factory,
			Via:     desc.Via,
			Method:  desc.Method,
			Release: desc.Release,
			Pattern: string(desc.Pattern),
			Ctor:    shapeStrings(desc.Ctor),
			Shapes:  shapes,
			Builds:  append([]string(nil), desc.Builds...),
		})
	}
	return out
}

func fromDescriptorSchemas(section string, schemas []descriptorSchema) ([]domain.CapabilityDescriptor, error) {
	if len(schemas) == 0 {
		return nil, nil
	}

	out := make([]domain.CapabilityDescriptor, 0, len(schemas))
	for i, entry := range schemas {
		ctor, err := parseShape(entry.Ctor)
		if err != nil {
			return nil, fmt.Errorf("profile %s[%d] ctor: %w", section, i, err)
		}

		shapes := make([]domain.Shape, 0, len(entry.Shapes))
		for _, raw := range entry.Shapes {
			shape, err := parseShape(raw)
			if err != nil {
				return nil, fmt.Errorf("profile %s[%d] shapes: %w", section, i, err)
			}
			if shape == nil {
				shape = domain.Shape{}
			}
			shapes = append(shapes, shape)
		}

		desc := domain.CapabilityDescriptor{
			Class:   entry.Class,
			Factory: entry.Factory,
			Via:     entry.Via,
			Method:  entry.Method,
			Release: entry.Release,
			Pattern: domain.CallPattern(entry.Pattern),
			Ctor:    ctor,
			Shapes:  shapes,
			Builds:  entry.Builds,
		}
		if err := desc.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s[%d]: %w", section, i, err)
		}
		out = append(out, desc)
	}
	return out, nil
}

func parseShape(raw []string) (domain.Shape, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	shape := make(domain.Shape, 0, len(raw))
	for _, item := range raw {
		t, err := domain.ParseParamType(item)
		if err != nil {
			return nil, err
		}
		shape = append(shape, t)
	}
	return shape, nil
}

func shapeStrings(shape domain.Shape) []string {
	if len(shape) == 0 {
		return nil
	}

	out := make([]string, len(shape))
	for i, t := range shape {
		out[i] = string(t)
	}
	return out
}
