package syncprim

import "errors"

var (
	// ErrInvalidCount indicates invalid construction parameters
	ErrInvalidCount = errors.New("invalid count")

	// ErrTimeout indicates a blocking operation whose deadline elapsed
	ErrTimeout = errors.New("operation timed out")

	// ErrBrokenBarrier indicates a barrier generation aborted by a
	// timed-out party
	ErrBrokenBarrier = errors.New("barrier is broken")
)
