package domain

import (
	"fmt"
	"strings"
)

type TaskStatus string

const (
	TaskPending        TaskStatus = "PENDING"
	TaskRunning        TaskStatus = "RUNNING"
	TaskStarting       TaskStatus = "STARTING"
	TaskScheduledStart TaskStatus = "SCHEDULED_START"
	TaskScheduledStop  TaskStatus = "SCHEDULED_STOP"
	TaskCompleted      TaskStatus = "COMPLETED"
	TaskAborted        TaskStatus = "ABORTED"
	TaskStopped        TaskStatus = "STOPPED"
	TaskUnknown        TaskStatus = "UNKNOWN"
)

var knownStatuses = []TaskStatus{
	TaskPending, TaskRunning, TaskStarting, TaskScheduledStart, TaskScheduledStop,
	TaskCompleted, TaskAborted, TaskStopped, TaskUnknown,
}

// ParseTaskStatus accepts bare names as well as the USERACTIVITYSTATUS_
// prefixed enum names some builds report. Unrecognised values map to
// TaskUnknown.
func ParseTaskStatus(raw string) TaskStatus {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, "USERACTIVITYSTATUS_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if normalized == "SCHEDULED" {
		return TaskScheduledStart
	}
	for _, status := range knownStatuses {
		if string(status) == normalized {
			return status
		}
	}
	return TaskUnknown
}

type TaskProgress struct {
	ID          int
	Description string
	Percent     int
	Status      TaskStatus
}

// StatusClasses partitions task statuses. Statuses in neither set are
// terminal and successful.
type StatusClasses struct {
	InFlight []TaskStatus
	Failed   []TaskStatus
}

func DefaultStatusClasses() StatusClasses {
	return StatusClasses{
		InFlight: []TaskStatus{TaskPending, TaskRunning, TaskStarting, TaskScheduledStart, TaskScheduledStop},
		Failed:   []TaskStatus{TaskAborted, TaskStopped},
	}
}

func ParseStatusList(raw []string) []TaskStatus {
	out := make([]TaskStatus, 0, len(raw))
	for _, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		out = append(out, ParseTaskStatus(value))
	}
	return out
}

func (c StatusClasses) IsInFlight(status TaskStatus) bool {
	return containsStatus(c.InFlight, status)
}

func (c StatusClasses) IsFailed(status TaskStatus) bool {
	return containsStatus(c.Failed, status)
}

func (c StatusClasses) Validate() error {
	for _, status := range c.InFlight {
		if containsStatus(c.Failed, status) {
			return fmt.Errorf("status %s is both in-flight and failed", status)
		}
	}
	return nil
}

func containsStatus(statuses []TaskStatus, target TaskStatus) bool {
	for _, status := range statuses {
		if status == target {
			return true
		}
	}
	return false
}

// PollOutcome aggregates the task states observed by the monitor.
type PollOutcome struct {
	Tasks      []TaskProgress
	AnyFailed  bool
	AnyRunning bool
	Polls      int
}

func (o PollOutcome) Succeeded() bool {
	return !o.AnyFailed && !o.AnyRunning
}
