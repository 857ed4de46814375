package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consolidateParams() domain.Params {
	var p domain.Params
	p.Set(domain.KeyApplication, "APP1")
	p.Set(domain.KeyPOV, "S#Actual.Y#2025.P#Jan.E#E1")
	p.Set(domain.KeyConsolidationType, "AllWithData")
	p.Set(domain.KeyCluster, "HFMCluster")
	p.Set(domain.KeyUser, "admin")
	p.Set(domain.KeyPassword, "secret")
	return p
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   Outcome
	}{
		{name: "nil is success", result: nil, want: Outcome{Success: true}},
		{name: "true", result: true, want: Outcome{Success: true}},
		{name: "false", result: false, want: Outcome{}},
		{name: "single id", result: json.Number("42"), want: Outcome{Success: true, Started: true, TaskIDs: []int{42}}},
		{name: "id list", result: []any{float64(1), float64(2)}, want: Outcome{Success: true, Started: true, TaskIDs: []int{1, 2}}},
		{name: "map with ids", result: map[string]any{"TaskIDs": []any{json.Number("7")}}, want: Outcome{Success: true, Started: true, TaskIDs: []int{7}}},
		{name: "map without ids", result: map[string]any{"status": "queued"}, want: Outcome{Success: true, Started: true}},
		{name: "object reference", result: domain.ObjectRef{ID: "o-1"}, want: Outcome{Success: true, Started: true}},
		{name: "opaque string", result: "accepted", want: Outcome{Success: true, Started: true}},
		{name: "fractional number is opaque", result: 1.5, want: Outcome{Success: true, Started: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.result))
		})
	}
}

func TestDispatcherPositionalShape(t *testing.T) {
	session := domain.NewSession(domain.ObjectRef{ID: "s-1", Class: "SessionInfo"}, "", "test", nil)
	dataOM := &fakeCapability{name: "DataOM.executeServerTask", invoke: func(domain.Shape, []any) (any, error) {
		return []any{json.Number("42")}, nil
	}}
	registry, err := NewRegistry("")
	require.NoError(t, err)

	outcome, err := NewDispatcher(NewProber(newFakeLocator(dataOM)), registry).Invoke(context.Background(), domain.OpConsolidate, consolidateParams(), session)

	require.NoError(t, err)
	assert.Equal(t, []int{42}, outcome.TaskIDs)
	assert.Equal(t, "DataOM.executeServerTask", outcome.Binding)
	require.Len(t, dataOM.args, 1)
	assert.Equal(t, []any{"WEBOM_DATAGRID_TASK_CONSOLIDATEALLWITHDATA", []string{"S#Actual.Y#2025.P#Jan.E#E1"}}, dataOM.args[0])
	assert.Equal(t, 1, dataOM.closed)
}

func TestDispatcherFallsBackToKeyedAction(t *testing.T) {
	action := &fakeCapability{name: "ConsolidateAction.execute", invoke: func(domain.Shape, []any) (any, error) {
		return map[string]any{"taskIDs": []any{float64(5)}}, nil
	}}
	registry, err := NewRegistry("")
	require.NoError(t, err)
	locator := newFakeLocator(action)

	outcome, err := NewDispatcher(NewProber(locator), registry).Invoke(context.Background(), domain.OpConsolidate, consolidateParams(), nil)

	require.NoError(t, err)
	assert.Equal(t, []int{5}, outcome.TaskIDs)
	assert.Equal(t, []string{"DataOM.executeServerTask", "ConsolidateAction.execute"}, locator.located)

	require.Len(t, action.args, 1)
	keyed, ok := action.args[0][0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "APP1", keyed["Application"])
	for _, alias := range domain.DefaultAliases()[domain.KeyApplication] {
		assert.Equal(t, "APP1", keyed[alias])
	}
}

func TestDispatcherReportsRemoteFaultVerbatim(t *testing.T) {
	dataOM := &fakeCapability{name: "DataOM.executeServerTask", invoke: func(domain.Shape, []any) (any, error) {
		return nil, &domain.RemoteError{Category: "HFMException", Message: "Invalid member E#Nope"}
	}}
	action := &fakeCapability{name: "ConsolidateAction.execute"}
	registry, err := NewRegistry("")
	require.NoError(t, err)

	_, err = NewDispatcher(NewProber(newFakeLocator(dataOM, action)), registry).Invoke(context.Background(), domain.OpConsolidate, consolidateParams(), nil)

	var dispatch *domain.DispatchError
	require.ErrorAs(t, err, &dispatch)
	assert.Equal(t, "HFMException", dispatch.Category)
	assert.Equal(t, "Invalid member E#Nope", dispatch.Message)
	assert.Equal(t, "HFMException: Invalid member E#Nope", err.Error())
	assert.Empty(t, action.invoked)
	assert.Equal(t, domain.ExitDispatch, domain.ExitCode(err))
}

func TestDispatcherStartedWithoutTaskIDs(t *testing.T) {
	action := &fakeCapability{name: "TranslateAction.execute", invoke: func(domain.Shape, []any) (any, error) {
		return map[string]any{}, nil
	}}
	registry, err := NewRegistry("")
	require.NoError(t, err)

	_, err = NewDispatcher(NewProber(newFakeLocator(action)), registry).Invoke(context.Background(), domain.OpTranslate, consolidateParams(), nil)

	var failure *domain.TaskFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Reason, "no task ids returned")
}

func TestDispatcherBindExhausted(t *testing.T) {
	registry, err := NewRegistry("")
	require.NoError(t, err)

	_, err = NewDispatcher(NewProber(newFakeLocator()), registry).Invoke(context.Background(), domain.OpExtractRules, consolidateParams(), nil)

	var bind *domain.BindError
	require.ErrorAs(t, err, &bind)
	assert.Len(t, bind.Attempts, 2)
	assert.Equal(t, domain.ExitBind, domain.ExitCode(err))
}

func TestOperationPoolLoadData(t *testing.T) {
	var p domain.Params
	p.Set(domain.KeyApplication, "APP1")
	p.Set(domain.KeyDataFile, "/data/jan.dat")

	args := domain.Coerce(domain.Shape{domain.TypeFileList, domain.TypeOptionsList}, operationPool(domain.OpLoadData, p))

	require.Len(t, args, 2)
	assert.Equal(t, []string{"/data/jan.dat"}, args[0])
	options, ok := args[1].([]any)
	require.True(t, ok)
	require.Len(t, options, 1)
	assert.Equal(t, domain.DefaultDelimiter, options[0].(map[string]any)["delimiter"])
}
