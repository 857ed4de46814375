package httpbridge

import "github.com/bnema/hfmctl/internal/domain"

const refKey = "$ref"

// encodeArgs rewrites object references into their wire form,
// {"$ref": id, "class": class}, at any depth.
func encodeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = encodeValue(arg)
	}
	return out
}

func encodeValue(value any) any {
	switch v := value.(type) {
	case domain.ObjectRef:
		return map[string]any{refKey: v.ID, "class": v.Class}
	case *domain.Session:
		if v == nil {
			return nil
		}
		return encodeValue(v.Ref)
	case []any:
		return encodeArgs(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = encodeValue(item)
		}
		return out
	case domain.Aliased:
		return encodeValue(map[string]any(v))
	default:
		return value
	}
}

// decodeValue turns wire references back into domain.ObjectRef.
func decodeValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = decodeValue(item)
		}
		return out
	case map[string]any:
		if id, ok := v[refKey].(string); ok {
			class, _ := v["class"].(string)
			return domain.ObjectRef{ID: id, Class: class}
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = decodeValue(item)
		}
		return out
	default:
		return value
	}
}
