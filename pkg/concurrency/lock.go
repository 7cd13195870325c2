package concurrency

import (
	"context"
	"errors"
)

// Lock is a binary mutual-exclusion lock whose Acquire honours context
// cancellation. Unlike sync.Mutex, waiters are served in FIFO order and
// releasing an unheld Lock reports ErrNotLocked instead of panicking.
//
// A Lock is not owned by a goroutine; any goroutine may release it.
type Lock struct {
	sem *Semaphore
}

// NewLock returns an unlocked Lock.
func NewLock() *Lock {
	return &Lock{sem: NewSemaphore(1)}
}

// Acquire blocks until the lock is free, then takes it. If ctx ends first
// it returns ctx.Err() and the lock is not taken.
func (l *Lock) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx)
}

// TryAcquire takes the lock only if it is free and nobody is waiting.
func (l *Lock) TryAcquire() bool {
	return l.sem.TryAcquire()
}

// Release frees the lock and wakes one waiter.
func (l *Lock) Release() error {
	if err := l.sem.Release(); err != nil {
		if errors.Is(err, ErrReleaseUnheld) {
			return ErrNotLocked
		}
		return err
	}
	return nil
}

// Locked reports whether the lock is held.
func (l *Lock) Locked() bool {
	return l.sem.Available() == 0
}

// WithLock runs fn while holding l and releases l on every exit path,
// including a panic in fn.
func WithLock(ctx context.Context, l Locker, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
