package logtrace

// Fields is a type alias for structured log fields
type Fields map[string]interface{}

// WithFields returns a copy of base with extra fields merged in.
func WithFields(base Fields, extra Fields) Fields {
	fields := Fields{}
	for key, value := range base {
		fields[key] = value
	}
	for key, value := range extra {
		fields[key] = value
	}
	return fields
}

const (
	FieldCorrelationID = "correlation_id"
	FieldOrigin        = "origin"
	FieldModule        = "module"
	FieldOperation     = "operation"
	FieldApplication   = "application"
	FieldCapability    = "capability"
	FieldShape         = "shape"
	FieldAttempt       = "attempt"
	FieldMethod        = "method"
	FieldObjectID      = "object_id"
	FieldRoute         = "route"
	FieldTaskID        = "task_id"
	FieldTaskIDs       = "task_ids"
	FieldStatus        = "status"
	FieldPercent       = "percent"
	FieldPoll          = "poll"
	FieldExitCode      = "exit_code"
	FieldElapsedMS     = "elapsed_ms"
	FieldError         = "error"
)
