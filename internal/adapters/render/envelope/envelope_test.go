package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bnema/hfmctl/internal/application"
	"github.com/bnema/hfmctl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	started := time.Date(2025, 1, 31, 18, 0, 0, 0, time.FixedZone("CET", 3600))
	result := application.InvocationResult{
		RunID:       "run-1",
		Operation:   domain.OpConsolidate,
		Application: "APP1",
		Status:      domain.RunOK,
		Message:     "Consolidation completed successfully",
		TaskIDs:     []int{42},
		StartedAt:   started,
		Elapsed:     1500 * time.Millisecond,
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromResult(result)))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "OK", got["status"])
	assert.Equal(t, "Consolidate", got["operation"])
	assert.Equal(t, "APP1", got["application"])
	assert.Equal(t, float64(1500), got["elapsed_ms"])
	assert.Equal(t, "2025-01-31T18:00:01.500+0100", got["timestamp"])
	assert.Equal(t, []any{float64(42)}, got["task_ids"])
	assert.Equal(t, "run-1", got["run_id"])
}

func TestEnvelopeAlwaysCarriesTaskIDList(t *testing.T) {
	env := Failure("Reboot", "", errors.New("unknown operation"), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, env))

	assert.Contains(t, buf.String(), `"task_ids":[]`)
	assert.Contains(t, buf.String(), `"status":"Error"`)
	assert.Equal(t, domain.ExitUnknown, env.ExitCode)
}

func TestWriteProgress(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProgress(&buf, domain.TaskProgress{ID: 42, Description: "Consolidate - APP1", Percent: 50, Status: domain.TaskRunning}))

	assert.JSONEq(t, `{"type":"progress","task_id":42,"description":"Consolidate - APP1","percent":50,"status":"RUNNING"}`, buf.String())
}
