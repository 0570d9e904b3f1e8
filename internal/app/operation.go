package app

import "time"

// Operation describes the CLI command a FlexiApp was created for. Its id
// tags every log line written during the command.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation creates an operation started at now. The id is derived from
// the start time so log lines of one invocation sort together.
func NewOperation(name string, now time.Time) *Operation {
	return &Operation{
		ID:        now.UTC().Format("20060102T150405.000Z"),
		Name:      name,
		StartedAt: now,
		Status:    "success",
	}
}

// Fail marks the operation as failed if err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.StartedAt)
}
