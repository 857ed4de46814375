package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ParamType string

const (
	TypeSession     ParamType = "session"
	TypeApplication ParamType = "application"
	TypePOV         ParamType = "pov"
	TypePOVList     ParamType = "pov[]"
	TypeTaskType    ParamType = "tasktype"
	TypeUser        ParamType = "user"
	TypePassword    ParamType = "password"
	TypeCluster     ParamType = "cluster"
	TypeLocale      ParamType = "locale"
	TypeToken       ParamType = "token"
	TypeFileList    ParamType = "file[]"
	TypeOptions     ParamType = "options"
	TypeOptionsList ParamType = "options[]"
	TypeFormat      ParamType = "format"
	TypeTaskIDs     ParamType = "int[]"
	TypeMap         ParamType = "map"
	TypeString      ParamType = "string"
	TypeStringList  ParamType = "string[]"
	TypeAny         ParamType = "any"
)

var paramTypes = []ParamType{
	TypeSession, TypeApplication, TypePOV, TypePOVList, TypeTaskType, TypeUser, TypePassword,
	TypeCluster, TypeLocale, TypeToken, TypeFileList, TypeOptions, TypeOptionsList, TypeFormat,
	TypeTaskIDs, TypeMap, TypeString, TypeStringList, TypeAny,
}

func ParseParamType(raw string) (ParamType, error) {
	normalized := ParamType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range paramTypes {
		if t == normalized {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown parameter type %q", raw)
}

// stringValued reports whether values of t travel as plain strings.
func (t ParamType) stringValued() bool {
	switch t {
	case TypeApplication, TypePOV, TypeTaskType, TypeUser, TypePassword, TypeCluster,
		TypeLocale, TypeToken, TypeFormat, TypeString:
		return true
	default:
		return false
	}
}

// Shape is the ordered parameter type list of one remote signature.
type Shape []ParamType

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = string(t)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// IsKeyed reports whether the signature takes a single parameter map.
func (s Shape) IsKeyed() bool {
	return len(s) == 1 && s[0] == TypeMap
}

type CallPattern string

const (
	// PatternAction acquires Class and calls Method (execute by default) with
	// a parameter map.
	PatternAction CallPattern = "action"
	// PatternObject constructs Class from Ctor, usually bound to the session,
	// and calls Method with positional arguments.
	PatternObject CallPattern = "object"
	// PatternLogin obtains Class through Factory, fetches a security object
	// through Via and calls Method on it.
	PatternLogin CallPattern = "login"
)

// CapabilityDescriptor names one candidate remote signature for a logical
// operation. Descriptors are immutable and ordered by precedence.
type CapabilityDescriptor struct {
	Class   string      `toml:"class" yaml:"class"`
	Factory string      `toml:"factory,omitempty" yaml:"factory,omitempty"`
	Via     string      `toml:"via,omitempty" yaml:"via,omitempty"`
	Method  string      `toml:"method" yaml:"method"`
	Release string      `toml:"release,omitempty" yaml:"release,omitempty"`
	Pattern CallPattern `toml:"pattern" yaml:"pattern"`
	Ctor    Shape       `toml:"ctor,omitempty" yaml:"ctor,omitempty"`
	Shapes  []Shape     `toml:"shapes" yaml:"shapes"`
	Builds  []string    `toml:"builds,omitempty" yaml:"builds,omitempty"`
}

func (d CapabilityDescriptor) QualifiedName() string {
	name := d.Class
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if d.Via != "" {
		name += "." + d.Via
	}
	return name + "." + d.Method
}

// AppliesTo reports whether the descriptor is registered for the given server
// build. An empty build list or an unknown build matches everything.
func (d CapabilityDescriptor) AppliesTo(build string) bool {
	if len(d.Builds) == 0 || build == "" {
		return true
	}
	for _, prefix := range d.Builds {
		if strings.HasPrefix(build, prefix) {
			return true
		}
	}
	return false
}

// ObjectRef is an opaque handle on a remote object.
type ObjectRef struct {
	ID    string
	Class string
}

func (r ObjectRef) IsZero() bool { return r.ID == "" }

// Arg is one typed value of a coercion pool.
type Arg struct {
	Type  ParamType
	Value any
}

// Coerce fills the slots of shape from pool. Each slot takes the first unused
// pool value whose type is compatible with it, or an empty string when none
// is left. Compatibility is exact type equality, any string-valued type for a
// string slot, a single value wrapped into a one-element list for list slots,
// and anything for an any slot.
func Coerce(shape Shape, pool []Arg) []any {
	used := make([]bool, len(pool))
	out := make([]any, len(shape))
	for i, slot := range shape {
		out[i] = ""
		for j, arg := range pool {
			if used[j] {
				continue
			}
			if value, ok := convertArg(slot, arg); ok {
				out[i] = value
				used[j] = true
				break
			}
		}
	}
	return out
}

func convertArg(slot ParamType, arg Arg) (any, bool) {
	switch {
	case slot == arg.Type, slot == TypeAny:
		return arg.Value, true
	case slot == TypeString && arg.Type.stringValued():
		return arg.Value, true
	case slot == TypePOVList && arg.Type == TypePOV:
		return wrapString(arg.Value)
	case slot == TypeStringList && (arg.Type == TypePOVList || arg.Type == TypeFileList):
		return arg.Value, true
	case slot == TypeStringList && arg.Type.stringValued():
		return wrapString(arg.Value)
	case slot == TypeOptionsList && arg.Type == TypeOptions:
		return []any{arg.Value}, true
	default:
		return nil, false
	}
}

func wrapString(value any) (any, bool) {
	s, ok := value.(string)
	if !ok {
		return nil, false
	}
	return []string{s}, true
}

// Validate checks that a descriptor loaded from a profile can be located.
func (d CapabilityDescriptor) Validate() error {
	if strings.TrimSpace(d.Class) == "" {
		return errors.New("descriptor class is required")
	}
	if strings.TrimSpace(d.Method) == "" {
		return fmt.Errorf("descriptor %s: method is required", d.Class)
	}
	switch d.Pattern {
	case "", PatternAction, PatternObject, PatternLogin:
	default:
		return fmt.Errorf("descriptor %s: unknown call pattern %q", d.QualifiedName(), d.Pattern)
	}
	if d.Pattern != PatternLogin && d.Via != "" {
		return fmt.Errorf("descriptor %s: via is only valid for login routes", d.QualifiedName())
	}
	return nil
}
