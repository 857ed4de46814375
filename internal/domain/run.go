package domain

import "time"

type RunStatus string

const (
	RunOK     RunStatus = "OK"
	RunFailed RunStatus = "Failed"
	RunError  RunStatus = "Error"
)

// RunRecord is one finished invocation as kept in the history ledger.
type RunRecord struct {
	ID          string
	Operation   Operation
	Application string
	Status      RunStatus
	Message     string
	TaskIDs     []int
	ExitCode    int
	Binding     string
	StartedAt   time.Time
	Elapsed     time.Duration
}

type RunFilter struct {
	Operation Operation
	Status    RunStatus
	Limit     int
}

func (f RunFilter) Matches(record RunRecord) bool {
	if f.Operation != "" && record.Operation != f.Operation {
		return false
	}
	if f.Status != "" && record.Status != f.Status {
		return false
	}
	return true
}
