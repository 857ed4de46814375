package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/hfmctl/internal/domain"
	"github.com/bnema/hfmctl/internal/logtrace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:   2 * time.Second,
		EmptyDelay:     500 * time.Millisecond,
		RetryDelay:     3 * time.Second,
		MaxPollRetries: 3,
		Classes:        domain.DefaultStatusClasses(),
	}
}

func TestMonitorRunningRunningCompleted(t *testing.T) {
	clock := newFakeClock()
	query := &scriptedQuery{steps: []pollStep{
		{progress: task(42, domain.TaskRunning)},
		{progress: task(42, domain.TaskRunning)},
		{progress: task(42, domain.TaskCompleted)},
	}}
	reporter := &recordingReporter{}

	outcome, err := NewMonitor(testMonitorConfig(), clock).Wait(context.Background(), []int{42}, query, reporter)

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 3, query.calls)
	assert.Equal(t, 3, outcome.Polls)
	assert.Len(t, reporter.reports, 3)
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 2 * time.Second}, clock.sleeps)
}

func TestMonitorRunningAborted(t *testing.T) {
	query := &scriptedQuery{steps: []pollStep{
		{progress: task(42, domain.TaskRunning)},
		{progress: task(42, domain.TaskAborted)},
	}}
	reporter := &recordingReporter{}

	outcome, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(context.Background(), []int{42}, query, reporter)

	require.NoError(t, err)
	assert.True(t, outcome.AnyFailed)
	assert.False(t, outcome.Succeeded())
	assert.Equal(t, 2, query.calls)
	assert.Len(t, reporter.reports, 2)
}

func TestMonitorPollRetryBound(t *testing.T) {
	retry := 3 * time.Second

	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
		wantSleep []time.Duration
	}{
		{
			name:      "bound failures then success",
			failures:  3,
			wantCalls: 4,
			wantSleep: []time.Duration{0, retry, retry, retry},
		},
		{
			name:      "one failure past the bound",
			failures:  4,
			wantErr:   true,
			wantCalls: 4,
			wantSleep: []time.Duration{0, retry, retry, retry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			var steps []pollStep
			for i := 1; i <= tt.failures; i++ {
				steps = append(steps, pollStep{err: fmt.Errorf("failure %d", i)})
			}
			steps = append(steps, pollStep{progress: task(42, domain.TaskCompleted)})
			query := &scriptedQuery{steps: steps}
			reporter := &recordingReporter{}

			outcome, err := NewMonitor(testMonitorConfig(), clock).Wait(context.Background(), []int{42}, query, reporter)

			assert.Equal(t, tt.wantCalls, query.calls)
			assert.Equal(t, tt.wantSleep, clock.sleeps)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.True(t, outcome.Succeeded())
				assert.Len(t, reporter.reports, 1)
				return
			}

			var poll *domain.PollError
			require.ErrorAs(t, err, &poll)
			assert.Equal(t, tt.failures, poll.Attempts)
			assert.Equal(t, "failure 4", poll.Err.Error())
			assert.Empty(t, reporter.reports)
			assert.Equal(t, domain.ExitBind, domain.ExitCode(err))
		})
	}
}

func TestMonitorZeroRetriesFailsOnFirstError(t *testing.T) {
	clock := newFakeClock()
	cfg := testMonitorConfig()
	cfg.MaxPollRetries = 0
	last := errors.New("down")
	query := &scriptedQuery{steps: []pollStep{{err: last}, {progress: task(42, domain.TaskCompleted)}}}

	_, err := NewMonitor(cfg, clock).Wait(context.Background(), []int{42}, query, &recordingReporter{})

	require.ErrorIs(t, err, last)
	assert.Equal(t, 1, query.calls)
	assert.Equal(t, []time.Duration{0}, clock.sleeps)
}

func TestMonitorWarnsOnUnknownStatus(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logtrace.SetLogger(zap.New(core))
	t.Cleanup(func() { logtrace.SetLogger(nil) })

	query := &scriptedQuery{steps: []pollStep{{progress: task(42, domain.ParseTaskStatus("7"))}}}

	outcome, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(context.Background(), []int{42}, query, &recordingReporter{})

	require.NoError(t, err)
	assert.False(t, outcome.AnyRunning)
	entries := logs.FilterMessageSnippet("unrecognised status").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(42), entries[0].ContextMap()[logtrace.FieldTaskID])
	assert.Equal(t, string(domain.TaskUnknown), entries[0].ContextMap()[logtrace.FieldStatus])
}

func TestMonitorEmptyResultDoesNotSpendBudget(t *testing.T) {
	clock := newFakeClock()
	cfg := testMonitorConfig()
	cfg.MaxPollRetries = 1
	query := &scriptedQuery{steps: []pollStep{
		{progress: nil},
		{progress: task(42, domain.TaskCompleted)},
	}}

	outcome, err := NewMonitor(cfg, clock).Wait(context.Background(), []int{42}, query, &recordingReporter{})

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 2, query.calls)
	assert.Equal(t, []time.Duration{0, cfg.EmptyDelay}, clock.sleeps)
}

func TestMonitorSuccessfulPollResetsFailureCount(t *testing.T) {
	cfg := testMonitorConfig()
	cfg.MaxPollRetries = 2
	query := &scriptedQuery{steps: []pollStep{
		{err: errors.New("race")},
		{progress: task(7, domain.TaskRunning)},
		{err: errors.New("race")},
		{progress: task(7, domain.TaskCompleted)},
	}}

	outcome, err := NewMonitor(cfg, newFakeClock()).Wait(context.Background(), []int{7}, query, &recordingReporter{})

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 4, query.calls)
}

func TestMonitorFailureIsSticky(t *testing.T) {
	query := &scriptedQuery{steps: []pollStep{
		{progress: []domain.TaskProgress{{ID: 1, Status: domain.TaskStopped}, {ID: 2, Status: domain.TaskRunning}}},
		{progress: []domain.TaskProgress{{ID: 2, Status: domain.TaskCompleted}}},
	}}

	outcome, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(context.Background(), []int{1, 2}, query, &recordingReporter{})

	require.NoError(t, err)
	assert.True(t, outcome.AnyFailed)
	assert.False(t, outcome.AnyRunning)
}

func TestMonitorTimeout(t *testing.T) {
	cfg := testMonitorConfig()
	cfg.Timeout = 5 * time.Second
	query := &scriptedQuery{steps: []pollStep{{progress: task(42, domain.TaskRunning)}}}

	_, err := NewMonitor(cfg, newFakeClock()).Wait(context.Background(), []int{42}, query, &recordingReporter{})

	require.ErrorIs(t, err, domain.ErrMonitorTimeout)
	assert.Equal(t, 3, query.calls)
	assert.Equal(t, domain.ExitTaskFailed, domain.ExitCode(err))
}

func TestMonitorScheduledStatusesStayInFlightUnlessReconfigured(t *testing.T) {
	steps := []pollStep{
		{progress: task(9, domain.TaskScheduledStart)},
		{progress: task(9, domain.TaskCompleted)},
	}

	query := &scriptedQuery{steps: steps}
	_, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(context.Background(), []int{9}, query, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, query.calls)

	cfg := testMonitorConfig()
	cfg.Classes = domain.StatusClasses{
		InFlight: []domain.TaskStatus{domain.TaskRunning},
		Failed:   []domain.TaskStatus{domain.TaskAborted, domain.TaskStopped},
	}
	query = &scriptedQuery{steps: steps}
	_, err = NewMonitor(cfg, newFakeClock()).Wait(context.Background(), []int{9}, query, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, query.calls)
}

func TestMonitorFlattensDescriptions(t *testing.T) {
	query := &scriptedQuery{steps: []pollStep{{progress: []domain.TaskProgress{
		{ID: 3, Description: "Consolidate\r\nE1", Status: domain.TaskCompleted},
	}}}}
	reporter := &recordingReporter{}

	_, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(context.Background(), []int{3}, query, reporter)

	require.NoError(t, err)
	require.Len(t, reporter.reports, 1)
	assert.Equal(t, "Consolidate - E1", reporter.reports[0].Description)
}

func TestMonitorStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	query := &scriptedQuery{steps: []pollStep{{progress: task(42, domain.TaskRunning)}}}
	reporter := reporterFunc(func(domain.TaskProgress) { cancel() })

	_, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(ctx, []int{42}, query, reporter)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, query.calls)
}

func TestMonitorNoTasks(t *testing.T) {
	query := &scriptedQuery{steps: []pollStep{{}}}

	outcome, err := NewMonitor(testMonitorConfig(), newFakeClock()).Wait(context.Background(), nil, query, nil)

	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Zero(t, query.calls)
}

type reporterFunc func(domain.TaskProgress)

func (f reporterFunc) ReportProgress(_ context.Context, progress domain.TaskProgress) { f(progress) }
