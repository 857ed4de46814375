package application

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
)

var taskIDKeys = []string{"taskIDs", "TaskIDs", "taskIds", "task_ids", "TaskIds"}

// Outcome is the normalised result of a dispatched operation.
type Outcome struct {
	Success bool
	Started bool
	TaskIDs []int
	Binding string
}

type Dispatcher struct {
	prober   *Prober
	registry *Registry
}

func NewDispatcher(prober *Prober, registry *Registry) *Dispatcher {
	return &Dispatcher{prober: prober, registry: registry}
}

// Invoke runs op through the first candidate that accepts the request. Keyed
// signatures receive the alias-expanded parameter map, positional ones the
// coerced pool. A server fault stops probing and is reported verbatim.
func (d *Dispatcher) Invoke(ctx context.Context, op domain.Operation, params domain.Params, session *domain.Session) (Outcome, error) {
	params = params.Clone()
	params.SetSession(session)

	aliased := d.registry.Aliases().Expand(params.Map())
	pool := operationPool(op, params)

	binding, result, err := d.prober.Resolve(ctx, Probe{
		Target:     string(op),
		Candidates: d.registry.Candidates(op),
		Session:    session,
		Args: func(_ domain.CapabilityDescriptor, shape domain.Shape) []any {
			if shape.IsKeyed() {
				return []any{map[string]any(aliased)}
			}
			return domain.Coerce(shape, pool)
		},
		StopOn: domain.IsRemoteFault,
	})
	if err != nil {
		var remote *domain.RemoteError
		if errors.As(err, &remote) {
			return Outcome{}, &domain.DispatchError{Operation: op, Category: remote.Category, Message: remote.Message, Err: err}
		}
		return Outcome{}, err
	}
	defer func() {
		if closeErr := binding.Close(ctx); closeErr != nil {
			logtrace.Debug(ctx, "release operation binding", logtrace.Fields{logtrace.FieldError: closeErr})
		}
	}()

	outcome := Normalize(result)
	outcome.Binding = binding.Name()

	if spec, ok := op.Spec(); ok && spec.ExpectsTasks && outcome.Started && len(outcome.TaskIDs) == 0 {
		return outcome, &domain.TaskFailure{Operation: op, Reason: "no task ids returned; the POV may be invalid"}
	}

	return outcome, nil
}

// operationPool builds the typed values positional signatures draw from.
func operationPool(op domain.Operation, params domain.Params) []domain.Arg {
	var pool []domain.Arg
	add := func(t domain.ParamType, value any) {
		if s, ok := value.(string); ok && s == "" {
			return
		}
		pool = append(pool, domain.Arg{Type: t, Value: value})
	}

	if session := params.Session(); session != nil {
		add(domain.TypeSession, session.Ref)
	}
	add(domain.TypeApplication, params.String(domain.KeyApplication))

	switch op {
	case domain.OpConsolidate:
		add(domain.TypeTaskType, domain.ConsolidationMask(params.String(domain.KeyConsolidationType)))
		add(domain.TypePOV, params.String(domain.KeyPOV))
	case domain.OpTranslate:
		add(domain.TypeTaskType, domain.TranslationMask(params.Bool(domain.KeyForce, false)))
		add(domain.TypePOV, params.String(domain.KeyPOV))
	case domain.OpLoadData:
		if file := params.String(domain.KeyDataFile); file != "" {
			add(domain.TypeFileList, []string{file})
		}
		add(domain.TypeOptions, domain.LoadDataOptions(params))
	case domain.OpExtractData:
		add(domain.TypeOptions, domain.ExtractDataOptions(params))
		add(domain.TypePOV, params.String(domain.KeyPOV))
	case domain.OpExtractMetadata:
		add(domain.TypeOptions, domain.MetadataExtractOptions(params))
	case domain.OpExtractRules:
		add(domain.TypeFormat, domain.RulesFileFormat(params))
	case domain.OpExtractSecurity:
		add(domain.TypeOptions, domain.SecurityExtractOptions(params))
	case domain.OpExtractJournals:
		add(domain.TypeOptions, domain.JournalExtractOptions(params))
		add(domain.TypePOV, params.String(domain.KeyPOV))
	}

	add(domain.TypeUser, params.String(domain.KeyUser))
	add(domain.TypePassword, params.String(domain.KeyPassword))
	add(domain.TypeCluster, params.String(domain.KeyCluster))
	add(domain.TypeString, params.String(domain.KeyDelimiter))

	return pool
}

// Normalize folds the result shapes the server hands back into an Outcome.
func Normalize(result any) Outcome {
	switch v := result.(type) {
	case nil:
		return Outcome{Success: true}
	case bool:
		return Outcome{Success: v}
	case domain.ObjectRef:
		return Outcome{Success: true, Started: true}
	case map[string]any:
		outcome := Outcome{Success: true, Started: true}
		for _, key := range taskIDKeys {
			if raw, ok := v[key]; ok {
				if ids, ok := toIntList(raw); ok {
					outcome.TaskIDs = ids
					break
				}
			}
		}
		return outcome
	}

	if id, ok := toInt(result); ok {
		return Outcome{Success: true, Started: true, TaskIDs: []int{id}}
	}
	if ids, ok := toIntList(result); ok {
		return Outcome{Success: true, Started: true, TaskIDs: ids}
	}

	return Outcome{Success: true, Started: true}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := strconv.Atoi(v.String())
		return n, err == nil
	default:
		return 0, false
	}
}

func toIntList(value any) ([]int, bool) {
	switch v := value.(type) {
	case []int:
		return v, true
	case []any:
		ids := make([]int, 0, len(v))
		for _, item := range v {
			id, ok := toInt(item)
			if !ok {
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	default:
		return nil, false
	}
}
