package concurrency

import "errors"

// Errors returned by the primitives.
var (
	// ErrCapacityTimeout is returned when AcquireTimeout gives up.
	ErrCapacityTimeout = errors.New("capacity acquire timeout")

	// ErrReleaseUnheld is returned when a Semaphore is released more
	// times than it was acquired.
	ErrReleaseUnheld = errors.New("semaphore released more than held")

	// ErrNotLocked is returned when releasing a Lock that is not held.
	ErrNotLocked = errors.New("lock is not held")
)
