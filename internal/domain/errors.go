package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCapabilityNotFound = errors.New("capability not found")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrUnknownOperation   = errors.New("unknown operation")
	ErrCredentialsMissing = errors.New("credentials missing")
	ErrMonitorTimeout     = errors.New("task monitor timed out")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrRunNotFound        = errors.New("run not found")
)

// Process exit codes, one per error class.
const (
	ExitOK             = 0
	ExitInvalidRequest = 1
	ExitAuth           = 2
	ExitDispatch       = 3
	ExitTaskFailed     = 4
	ExitUnknown        = 5
	ExitBind           = 6
)

// RemoteError is an application fault raised by the server itself, as opposed
// to a missing method or a rejected argument list.
type RemoteError struct {
	Category string
	Message  string
}

func (e *RemoteError) Error() string {
	if e.Category == "" {
		return e.Message
	}
	if e.Message == "" {
		return e.Category
	}
	return e.Category + ": " + e.Message
}

// IsRemoteFault reports whether err carries a server-side fault that must stop
// probing instead of moving on to the next candidate.
func IsRemoteFault(err error) bool {
	if errors.Is(err, ErrCapabilityNotFound) || errors.Is(err, ErrSignatureMismatch) {
		return false
	}
	var remote *RemoteError
	return errors.As(err, &remote)
}

// Attempt is one failed candidate. Err joins the failure of every shape that
// was tried, in order; a locate failure leaves Shapes empty.
type Attempt struct {
	Capability string
	Shapes     []Shape
	Err        error
}

func (a Attempt) String() string {
	switch len(a.Shapes) {
	case 0:
		return fmt.Sprintf("%s: %v", a.Capability, a.Err)
	case 1:
		return fmt.Sprintf("%s%s: %v", a.Capability, a.Shapes[0], a.Err)
	}
	msg := strings.ReplaceAll(fmt.Sprint(a.Err), "\n", ", ")
	return fmt.Sprintf("%s: [%s]", a.Capability, msg)
}

// BindError reports that no candidate capability could be bound. It keeps one
// entry per failed candidate, in the order they were tried.
type BindError struct {
	Target   string
	Attempts []Attempt
}

func (e *BindError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("no binding for %s: no candidates registered", e.Target)
	}

	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, attempt.String())
	}
	return fmt.Sprintf("no binding for %s after %d attempts: %s", e.Target, len(e.Attempts), strings.Join(parts, "; "))
}

type InvalidRequestError struct {
	Operation Operation
	Missing   []string
	Reason    string
}

func (e *InvalidRequestError) Error() string {
	if len(e.Missing) > 0 {
		return "Missing required parameters: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// DispatchError carries a remote fault raised while invoking an operation.
// Category and Message are reported verbatim.
type DispatchError struct {
	Operation Operation
	Category  string
	Message   string
	Err       error
}

func (e *DispatchError) Error() string {
	if e.Category == "" {
		return e.Message
	}
	return e.Category + ": " + e.Message
}

func (e *DispatchError) Unwrap() error { return e.Err }

// PollError is returned once the status poll failure budget is spent.
type PollError struct {
	Attempts int
	Err      error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("task status polling failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// TaskFailure is a structured failed outcome: the operation ran but at least
// one task did not complete successfully.
type TaskFailure struct {
	Operation Operation
	TaskIDs   []int
	Reason    string
	Err       error
}

func (e *TaskFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *TaskFailure) Unwrap() error { return e.Err }

// ExitCode maps an error to the process exit code of its class.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		invalid  *InvalidRequestError
		auth     *AuthError
		poll     *PollError
		failure  *TaskFailure
		dispatch *DispatchError
		bind     *BindError
	)

	switch {
	case errors.As(err, &invalid), errors.Is(err, ErrUnknownOperation):
		return ExitInvalidRequest
	case errors.As(err, &auth), errors.Is(err, ErrCredentialsMissing):
		return ExitAuth
	case errors.As(err, &poll):
		return ExitBind
	case errors.As(err, &failure), errors.Is(err, ErrMonitorTimeout):
		return ExitTaskFailed
	case errors.As(err, &dispatch):
		return ExitDispatch
	case errors.As(err, &bind):
		return ExitBind
	default:
		return ExitUnknown
	}
}
