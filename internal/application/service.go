package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/bnema/hfmctl/internal/ports"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Request is one canonical invocation as assembled by the command layer.
type Request struct {
	Operation domain.Operation
	Params    domain.Params
	// Anonymous skips login; the operation then receives the raw credentials.
	Anonymous bool
	Locale    string
}

type InvocationResult struct {
	RunID       string
	Operation   domain.Operation
	Application string
	Status      domain.RunStatus
	Message     string
	TaskIDs     []int
	StartedAt   time.Time
	Elapsed     time.Duration
	ExitCode    int
	Binding     string
}

func (r InvocationResult) Record() domain.RunRecord {
	return domain.RunRecord{
		ID:          r.RunID,
		Operation:   r.Operation,
		Application: r.Application,
		Status:      r.Status,
		Message:     r.Message,
		TaskIDs:     append([]int(nil), r.TaskIDs...),
		ExitCode:    r.ExitCode,
		Binding:     r.Binding,
		StartedAt:   r.StartedAt,
		Elapsed:     r.Elapsed,
	}
}

type Service struct {
	registry   *Registry
	prober     *Prober
	broker     *Broker
	dispatcher *Dispatcher
	monitor    *Monitor
	history    ports.RunRepository
	clock      ports.Clock
	validate   *validator.Validate
	newID      func() string
}

func NewService(registry *Registry, locator ports.CapabilityLocator, history ports.RunRepository, clock ports.Clock, monitor MonitorConfig) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	prober := NewProber(locator)
	return &Service{
		registry:   registry,
		prober:     prober,
		broker:     NewBroker(prober, registry),
		dispatcher: NewDispatcher(prober, registry),
		monitor:    NewMonitor(monitor, clock),
		history:    history,
		clock:      clock,
		validate:   newRequestValidator(),
		newID:      uuid.NewString,
	}
}

// Run executes one invocation end to end: validate, login, dispatch, wait for
// the started tasks and record the outcome. The session is released on every
// path. The returned error carries the failure class; the result is filled
// either way.
func (s *Service) Run(ctx context.Context, req Request, reporter ports.ProgressReporter) (InvocationResult, error) {
	result := InvocationResult{
		RunID:       s.newID(),
		Operation:   req.Operation,
		Application: req.Params.String(domain.KeyApplication),
		StartedAt:   s.clock.Now(),
	}
	ctx = logtrace.CtxWithCorrelationID(ctx, result.RunID)

	err := s.run(ctx, req, reporter, &result)
	s.finish(ctx, &result, err)

	return result, err
}

func (s *Service) run(ctx context.Context, req Request, reporter ports.ProgressReporter, result *InvocationResult) error {
	spec, err := s.checkRequest(req)
	if err != nil {
		return err
	}

	fields := logtrace.Fields{
		logtrace.FieldOperation:   string(spec.Operation),
		logtrace.FieldApplication: result.Application,
	}
	logtrace.Info(ctx, "invocation started", fields)

	creds := credentialsFrom(req)
	if !req.Anonymous && !creds.complete() {
		return &domain.AuthError{Reason: "user and password are required", Err: domain.ErrCredentialsMissing}
	}

	var session *domain.Session
	if !req.Anonymous {
		session, err = s.broker.Login(ctx, creds)
		if err != nil {
			return err
		}
	}
	defer s.broker.Release(context.WithoutCancel(ctx), session)

	params := req.Params.Clone()
	if session != nil {
		params.Delete(domain.KeyPassword)
	}

	outcome, err := s.dispatcher.Invoke(ctx, spec.Operation, params, session)
	result.Binding = outcome.Binding
	result.TaskIDs = outcome.TaskIDs
	if err != nil {
		return err
	}
	if !outcome.Success {
		return &domain.TaskFailure{Operation: spec.Operation, Reason: spec.Failure}
	}

	if len(outcome.TaskIDs) > 0 {
		logtrace.Info(ctx, "waiting for tasks", logtrace.WithFields(fields, logtrace.Fields{logtrace.FieldTaskIDs: outcome.TaskIDs}))

		query := newStatusQuery(s.prober, s.registry, session)
		polled, err := s.monitor.Wait(ctx, outcome.TaskIDs, query, reporter)
		if err != nil {
			if errors.Is(err, domain.ErrMonitorTimeout) {
				return &domain.TaskFailure{Operation: spec.Operation, TaskIDs: outcome.TaskIDs, Reason: spec.Failure, Err: err}
			}
			return err
		}
		if polled.AnyFailed {
			return &domain.TaskFailure{Operation: spec.Operation, TaskIDs: outcome.TaskIDs, Reason: spec.Failure}
		}
	}

	result.Message = spec.Success
	return nil
}

func (s *Service) finish(ctx context.Context, result *InvocationResult, err error) {
	result.Elapsed = s.clock.Now().Sub(result.StartedAt)
	result.ExitCode = domain.ExitCode(err)

	var failure *domain.TaskFailure
	switch {
	case err == nil:
		result.Status = domain.RunOK
	case errors.As(err, &failure):
		result.Status = domain.RunFailed
		result.Message = err.Error()
	default:
		result.Status = domain.RunError
		result.Message = err.Error()
	}

	fields := logtrace.Fields{
		logtrace.FieldOperation: string(result.Operation),
		logtrace.FieldStatus:    string(result.Status),
		logtrace.FieldExitCode:  result.ExitCode,
		logtrace.FieldElapsedMS: result.Elapsed.Milliseconds(),
	}
	if err != nil {
		logtrace.Error(ctx, "invocation failed", logtrace.WithFields(fields, logtrace.Fields{logtrace.FieldError: err}))
	} else {
		logtrace.Info(ctx, "invocation finished", fields)
	}

	if s.history == nil {
		return
	}
	if recordErr := s.history.Append(ctx, result.Record()); recordErr != nil {
		logtrace.Warn(ctx, "record run history", logtrace.Fields{logtrace.FieldError: recordErr})
	}
}

// checkRequest resolves the operation contract and validates the request
// against it.
func (s *Service) checkRequest(req Request) (domain.OperationSpec, error) {
	spec, ok := req.Operation.Spec()
	if !ok {
		return domain.OperationSpec{}, fmt.Errorf("%w: %q", domain.ErrUnknownOperation, req.Operation)
	}

	var missing []string
	for _, key := range spec.Required {
		if err := s.validate.Var(req.Params.String(key), "required"); err != nil {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		return spec, &domain.InvalidRequestError{Operation: spec.Operation, Missing: missing}
	}

	if spec.CheckPOV {
		pov := req.Params.String(domain.KeyPOV)
		if err := s.validate.Var(pov, "pov"); err != nil {
			return spec, &domain.InvalidRequestError{Operation: spec.Operation, Reason: domain.ParsePOV(pov).Validate().Error()}
		}
	}

	return spec, nil
}

func newRequestValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("pov", func(fl validator.FieldLevel) bool {
		return domain.ParsePOV(fl.Field().String()).Validate() == nil
	})
	return v
}

func credentialsFrom(req Request) Credentials {
	p := req.Params
	return Credentials{
		User:        p.String(domain.KeyUser),
		Password:    p.String(domain.KeyPassword),
		Cluster:     p.String(domain.KeyCluster),
		Provider:    p.String(domain.KeyProvider),
		Domain:      p.String(domain.KeyDomain),
		Server:      p.String(domain.KeyServer),
		Application: p.String(domain.KeyApplication),
		Locale:      req.Locale,
	}
}
