// Package envelope renders invocation outcomes as the single JSON object a
// scheduler reads from stdout.
package envelope

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bnema/hfmctl/internal/application"
	"github.com/bnema/hfmctl/internal/domain"
)

const TimestampLayout = "2006-01-02T15:04:05.000-0700"

type Envelope struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	Operation   string `json:"operation"`
	Application string `json:"application"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	Timestamp   string `json:"timestamp"`
	TaskIDs     []int  `json:"task_ids"`
	RunID       string `json:"run_id,omitempty"`
	ExitCode    int    `json:"exit_code"`
}

type Progress struct {
	Type        string `json:"type"`
	TaskID      int    `json:"task_id"`
	Description string `json:"description"`
	Percent     int    `json:"percent"`
	Status      string `json:"status"`
}

func FromResult(result application.InvocationResult) Envelope {
	return FromRecord(result.Record())
}

func FromRecord(record domain.RunRecord) Envelope {
	taskIDs := record.TaskIDs
	if taskIDs == nil {
		taskIDs = []int{}
	}

	return Envelope{
		Status:      string(record.Status),
		Message:     record.Message,
		Operation:   string(record.Operation),
		Application: record.Application,
		ElapsedMS:   record.Elapsed.Milliseconds(),
		Timestamp:   formatTimestamp(record.StartedAt.Add(record.Elapsed)),
		TaskIDs:     taskIDs,
		RunID:       record.ID,
		ExitCode:    record.ExitCode,
	}
}

// Failure builds the envelope of an invocation that never reached the
// service, such as an unparseable operation name.
func Failure(operation string, application string, err error, now time.Time) Envelope {
	return Envelope{
		Status:      string(domain.RunError),
		Message:     err.Error(),
		Operation:   operation,
		Application: application,
		Timestamp:   formatTimestamp(now),
		TaskIDs:     []int{},
		ExitCode:    domain.ExitCode(err),
	}
}

func Write(w io.Writer, env Envelope) error {
	if err := json.NewEncoder(w).Encode(env); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

func WriteProgress(w io.Writer, progress domain.TaskProgress) error {
	line := Progress{
		Type:        "progress",
		TaskID:      progress.ID,
		Description: progress.Description,
		Percent:     progress.Percent,
		Status:      string(progress.Status),
	}
	if err := json.NewEncoder(w).Encode(line); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}
