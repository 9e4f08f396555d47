package session

import (
	"fmt"
	"time"
)

// InvalidStateTransitionError reports an operation that is illegal for the
// current state. Always recoverable: the caller picks a different action.
type InvalidStateTransitionError struct {
	Op   string
	From State
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s", e.Op, e.From)
}

// TimeSourceError reports a failed time provider. Fatal to the current
// session only; the session transitions to Failed.
type TimeSourceError struct {
	Err error
}

func (e *TimeSourceError) Error() string {
	return fmt.Sprintf("time source failed: %v", e.Err)
}

func (e *TimeSourceError) Unwrap() error {
	return e.Err
}

// ValidationError reports a recording that finished but did not meet the
// duration or data-size requirements. TooShort distinguishes "the user
// released the key early" (a soft warning) from genuinely broken captures.
type ValidationError struct {
	Reason   string
	TooShort bool
	Measured time.Duration
	Minimum  time.Duration
}

func (e *ValidationError) Error() string {
	return e.Reason
}
