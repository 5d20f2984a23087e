package scheduler

import "errors"

var (
	// ErrInvalidDefinition is returned when a task definition is missing
	// required fields.
	ErrInvalidDefinition = errors.New("invalid task definition")

	// ErrClosed is returned when scheduling on a scheduler that has been shut down.
	ErrClosed = errors.New("scheduler is shut down")

	// ErrTaskFailed is passed to OnError when Execute reports Success=false
	// without an error message.
	ErrTaskFailed = errors.New("task reported failure")
)
