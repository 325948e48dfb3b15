package pool

import "errors"

// Errors returned by the manager's own API. A failure inside a submitted
// task never surfaces through these: it is captured on the task's record
// as StateError.
var (
	// ErrInvalidConfig indicates invalid construction parameters
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTaskNotFound indicates an unknown task id
	ErrTaskNotFound = errors.New("task not found")

	// ErrTimeout indicates a blocking operation whose deadline elapsed
	ErrTimeout = errors.New("operation timed out")

	// ErrShutdown indicates an operation attempted after shutdown
	ErrShutdown = errors.New("manager is shut down")
)
