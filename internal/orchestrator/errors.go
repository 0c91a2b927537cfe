package orchestrator

import "fmt"

// SystemError marks an unexpected failure inside the run loop itself,
// as opposed to the per-source and per-item errors the loop absorbs.
type SystemError struct {
	Detail string
	Cause  error
}

func (e *SystemError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("system error: %s: %v", e.Detail, e.Cause)
	}
	return "system error: " + e.Detail
}

func (e *SystemError) Unwrap() error { return e.Cause }
