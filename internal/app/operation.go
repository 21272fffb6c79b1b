package app

import "time"

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Operation tracks one CLI invocation. Its ID tags every log line the
// invocation writes, and its final Status is logged on Close.
type Operation struct {
	ID     string
	Name   string
	Status string // "success" or "error"
}

// NewOperation creates an operation whose ID is derived from started.
func NewOperation(name string, started time.Time) *Operation {
	return &Operation{
		ID:     started.UTC().Format("20060102T150405Z"),
		Name:   name,
		Status: statusSuccess,
	}
}

// Record marks the operation failed if err is not nil and returns err.
func (op *Operation) Record(err error) error {
	if err != nil {
		op.Status = statusError
	}
	return err
}

// Failed reports whether any recorded error was non-nil.
func (op *Operation) Failed() bool {
	return op.Status == statusError
}
