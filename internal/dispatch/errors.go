package dispatch

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned (wrapped) when the run's context is cancelled.
// Callers use errors.Is to tell "the user stopped it" from "it broke".
var ErrInterrupted = errors.New("interrupted by user")

// InputError is a pre-flight failure: the work list is missing, unreadable,
// or has nothing to send. Nothing has been injected when it is returned.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: %v", e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// RunError is a failure of the input layer. During processing it is scoped
// to one item attempt; during window search or coordinate capture it aborts
// the run.
type RunError struct {
	Step string
	Err  error
}

func (e *RunError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("run error: %v", e.Err)
	}
	return fmt.Sprintf("run error at %s: %v", e.Step, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func runErr(step string, err error) *RunError {
	return &RunError{Step: step, Err: err}
}
