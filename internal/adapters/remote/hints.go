package remote

import (
	"context"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
)

// applyHints pushes each non-empty connection hint through the first setter
// the object accepts. Failures are logged and never abort the login.
func applyHints(ctx context.Context, surface ports.RemoteSurface, obj domain.ObjectRef, hints map[domain.Key]string) int {
	applied := 0
	for _, hint := range domain.ConnectionHints {
		value := hints[hint.Key]
		if value == "" {
			continue
		}

		for _, setter := range hint.Setters {
			if _, err := surface.Call(ctx, obj, setter, []any{value}); err != nil {
				logtrace.Debug(ctx, "connection hint not applied", logtrace.Fields{
					logtrace.FieldObjectID: obj.ID,
					logtrace.FieldMethod:   setter,
					logtrace.FieldError:    err,
				})
				continue
			}
			applied++
			break
		}
	}
	return applied
}
