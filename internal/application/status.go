package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
)

var (
	progressIDKeys      = []string{"taskID", "TaskID", "taskId", "id"}
	progressDescKeys    = []string{"description", "Description", "taskDescription"}
	progressPercentKeys = []string{"percentCompleted", "precentCompleted", "PercentCompleted", "percent"}
	progressStatusKeys  = []string{"taskStatus", "TaskStatus", "status"}
)

// statusQuery resolves the status capability through the prober on every
// poll, so no remote object outlives a single query.
type statusQuery struct {
	prober   *Prober
	registry *Registry
	session  *domain.Session
}

var _ ports.StatusQuery = (*statusQuery)(nil)

func newStatusQuery(prober *Prober, registry *Registry, session *domain.Session) *statusQuery {
	return &statusQuery{prober: prober, registry: registry, session: session}
}

func (q *statusQuery) Query(ctx context.Context, ids []int) ([]domain.TaskProgress, error) {
	pool := []domain.Arg{{Type: domain.TypeTaskIDs, Value: ids}}
	if q.session != nil {
		pool = append(pool, domain.Arg{Type: domain.TypeSession, Value: q.session.Ref})
	}

	binding, result, err := q.prober.Resolve(ctx, Probe{
		Target:     "task status",
		Candidates: q.registry.StatusQueries(),
		Session:    q.session,
		Args: func(_ domain.CapabilityDescriptor, shape domain.Shape) []any {
			return domain.Coerce(shape, pool)
		},
		StopOn: domain.IsRemoteFault,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := binding.Close(ctx); closeErr != nil {
			logtrace.Debug(ctx, "release status binding", logtrace.Fields{logtrace.FieldError: closeErr})
		}
	}()

	return ParseProgressList(result)
}

// ParseProgressList reads the task progress records returned by a status
// query. A nil result is an empty list.
func ParseProgressList(result any) ([]domain.TaskProgress, error) {
	if result == nil {
		return nil, nil
	}

	items, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("parse task progress: unexpected payload %T", result)
	}

	out := make([]domain.TaskProgress, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse task progress: entry %d is %T", i, item)
		}

		id, ok := toInt(firstValue(record, progressIDKeys))
		if !ok {
			return nil, fmt.Errorf("parse task progress: entry %d has no task id", i)
		}
		percent, _ := toInt(firstValue(record, progressPercentKeys))
		description, _ := firstValue(record, progressDescKeys).(string)

		out = append(out, domain.TaskProgress{
			ID:          id,
			Description: description,
			Percent:     percent,
			Status:      domain.ParseTaskStatus(statusString(firstValue(record, progressStatusKeys))),
		})
	}

	return out, nil
}

func firstValue(record map[string]any, keys []string) any {
	for _, key := range keys {
		if value, ok := record[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func statusString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return name
		}
	}
	if value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}
