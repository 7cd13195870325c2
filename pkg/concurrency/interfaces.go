package concurrency

import (
	"context"
	"time"
)

// Limiter bounds the number of concurrent holders.
// Implemented by Semaphore.
type Limiter interface {
	// Acquire blocks until a slot is free or ctx ends.
	Acquire(ctx context.Context) error

	// AcquireTimeout is Acquire bounded by timeout. A timeout <= 0 means
	// no bound other than ctx.
	AcquireTimeout(ctx context.Context, timeout time.Duration) error

	// TryAcquire takes a slot only if one is free right now.
	TryAcquire() bool

	// Release returns one slot.
	Release() error

	// Available returns the number of free slots.
	Available() int

	// Capacity returns the fixed number of slots.
	Capacity() int
}

// Locker is a binary mutual-exclusion lock.
// Implemented by Lock.
type Locker interface {
	// Acquire blocks until the lock is held by the caller or ctx ends.
	Acquire(ctx context.Context) error

	// TryAcquire takes the lock only if it is free right now.
	TryAcquire() bool

	// Release frees the lock and wakes the longest waiter.
	Release() error

	// Locked reports whether the lock is currently held.
	Locked() bool
}

// Compile-time interface satisfaction checks.
var (
	_ Limiter = (*Semaphore)(nil)
	_ Locker  = (*Lock)(nil)
)
