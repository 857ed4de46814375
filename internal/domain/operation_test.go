package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		name string
		want Operation
	}{
		{name: "Consolidate", want: OpConsolidate},
		{name: "consolidate", want: OpConsolidate},
		{name: "LOAD_DATA", want: OpLoadData},
		{name: "load", want: OpLoadData},
		{name: "extract-data", want: OpExtractData},
		{name: "extract", want: OpExtractData},
		{name: "memberlists", want: OpExtractMemberLists},
		{name: "journals", want: OpExtractJournals},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOperation(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOperationUnknown(t *testing.T) {
	_, err := ParseOperation("Reboot")

	require.ErrorIs(t, err, ErrUnknownOperation)
	assert.Equal(t, ExitInvalidRequest, ExitCode(err))
}

func TestEveryOperationHasSpec(t *testing.T) {
	for _, spec := range Operations() {
		got, ok := spec.Operation.Spec()
		require.True(t, ok)
		assert.Contains(t, got.Required, KeyApplication)
		assert.NotEmpty(t, got.Success)
	}
	_, ok := Operation("Nope").Spec()
	assert.False(t, ok)
}

func TestExitCode(t *testing.T) {
	bind := &BindError{Target: "Consolidate"}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "invalid request", err: &InvalidRequestError{Missing: []string{"POV"}}, want: ExitInvalidRequest},
		{name: "auth wrapping bind", err: &AuthError{Reason: "login failed", Err: bind}, want: ExitAuth},
		{name: "missing credentials", err: fmt.Errorf("login: %w", ErrCredentialsMissing), want: ExitAuth},
		{name: "dispatch", err: &DispatchError{Category: "HFMException", Message: "bad POV"}, want: ExitDispatch},
		{name: "task failure", err: &TaskFailure{Reason: "task failed"}, want: ExitTaskFailed},
		{name: "monitor timeout", err: fmt.Errorf("wait: %w", ErrMonitorTimeout), want: ExitTaskFailed},
		{name: "poll exhausted", err: &PollError{Attempts: 3, Err: &RemoteError{Message: "down"}}, want: ExitBind},
		{name: "bind exhausted", err: bind, want: ExitBind},
		{name: "other", err: errors.New("boom"), want: ExitUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestIsRemoteFault(t *testing.T) {
	assert.True(t, IsRemoteFault(&RemoteError{Category: "HFMException", Message: "invalid member"}))
	assert.True(t, IsRemoteFault(fmt.Errorf("call: %w", &RemoteError{Message: "x"})))
	assert.False(t, IsRemoteFault(ErrSignatureMismatch))
	assert.False(t, IsRemoteFault(fmt.Errorf("%w: no such method", ErrCapabilityNotFound)))
	assert.False(t, IsRemoteFault(errors.New("dial tcp: refused")))
}

func TestBindErrorListsAttempts(t *testing.T) {
	err := &BindError{Target: "login", Attempts: []Attempt{
		{Capability: "A.login", Shapes: []Shape{{TypeUser, TypePassword}}, Err: ErrSignatureMismatch},
		{Capability: "B.login", Err: ErrCapabilityNotFound},
	}}

	assert.Equal(t, "no binding for login after 2 attempts: A.login(user, password): signature mismatch; B.login: capability not found", err.Error())
}

func TestAttemptJoinsShapeFailures(t *testing.T) {
	attempt := Attempt{
		Capability: "Factory.login",
		Shapes:     []Shape{{TypeUser, TypePassword, TypeCluster}, {TypeUser, TypePassword}},
		Err: errors.Join(
			fmt.Errorf("(user, password, cluster): %w", ErrSignatureMismatch),
			fmt.Errorf("(user, password): %w", ErrSignatureMismatch),
		),
	}

	assert.Equal(t, "Factory.login: [(user, password, cluster): signature mismatch, (user, password): signature mismatch]", attempt.String())
	assert.ErrorIs(t, attempt.Err, ErrSignatureMismatch)
}
