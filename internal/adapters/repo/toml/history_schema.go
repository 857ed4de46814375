package toml

import (
	"fmt"
	"time"

	"github.com/bnema/hfmctl/internal/domain"
)

const currentHistoryVersion = 1

type historySchema struct {
	Version int         `toml:"version"`
	Runs    []runSchema `toml:"runs"`
}

func (s *historySchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentHistoryVersion
	}
}

func (s historySchema) validateVersion() error {
	if s.Version > currentHistoryVersion {
		return fmt.Errorf("unsupported history schema version %d (current %d)", s.Version, currentHistoryVersion)
	}

	return nil
}

type runSchema struct {
	ID          string `toml:"id"`
	Operation   string `toml:"operation"`
	Application string `toml:"application,omitempty"`
	Status      string `toml:"status"`
	Message     string `toml:"message,omitempty"`
	TaskIDs     []int  `toml:"task_ids,omitempty"`
	ExitCode    int    `toml:"exit_code"`
	Binding     string `toml:"binding,omitempty"`
	StartedAt   string `toml:"started_at"`
	ElapsedMS   int64  `toml:"elapsed_ms"`
}

func toRunSchema(record domain.RunRecord) runSchema {
	return runSchema{
		ID:          record.ID,
		Operation:   string(record.Operation),
		Application: record.Application,
		Status:      string(record.Status),
		Message:     record.Message,
		TaskIDs:     record.TaskIDs,
		ExitCode:    record.ExitCode,
		Binding:     record.Binding,
		StartedAt:   formatTime(record.StartedAt),
		ElapsedMS:   record.Elapsed.Milliseconds(),
	}
}

func fromRunSchema(run runSchema) domain.RunRecord {
	return domain.RunRecord{
		ID:          run.ID,
		Operation:   domain.Operation(run.Operation),
		Application: run.Application,
		Status:      domain.RunStatus(run.Status),
		Message:     run.Message,
		TaskIDs:     run.TaskIDs,
		ExitCode:    run.ExitCode,
		Binding:     run.Binding,
		StartedAt:   parseTime(run.StartedAt),
		Elapsed:     time.Duration(run.ElapsedMS) * time.Millisecond,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339Nano)
}
