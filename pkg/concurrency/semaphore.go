package concurrency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Semaphore is a counting semaphore with a fixed capacity. Waiters are
// served in FIFO order.
type Semaphore struct {
	capacity int
	sem      *semaphore.Weighted

	mu   sync.Mutex
	held int
}

// NewSemaphore creates a semaphore with capacity free slots.
// It panics if capacity is not positive.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		panic(fmt.Sprintf("concurrency: semaphore capacity must be positive, got %d", capacity))
	}
	return &Semaphore{
		capacity: capacity,
		sem:      semaphore.NewWeighted(int64(capacity)),
	}
}

// Acquire blocks until a slot is free or ctx ends. On failure it returns
// ctx.Err() and no slot is consumed.
func (s *Semaphore) Acquire(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	s.markAcquired()
	return nil
}

// AcquireTimeout blocks until a slot is free, the timeout elapses or ctx
// ends. When the timeout elapses it returns ErrCapacityTimeout and no slot
// is consumed. A timeout <= 0 behaves like Acquire.
func (s *Semaphore) AcquireTimeout(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		return s.Acquire(ctx)
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.sem.Acquire(tctx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %v", ErrCapacityTimeout, timeout)
	}
	s.markAcquired()
	return nil
}

// TryAcquire takes a slot without blocking. It fails if no slot is free
// or if other callers are already waiting.
func (s *Semaphore) TryAcquire() bool {
	if !s.sem.TryAcquire(1) {
		return false
	}
	s.markAcquired()
	return true
}

// Release returns one slot and wakes the longest waiter. Releasing more
// slots than are held returns ErrReleaseUnheld and leaves the count
// unchanged.
func (s *Semaphore) Release() error {
	s.mu.Lock()
	if s.held == 0 {
		s.mu.Unlock()
		return ErrReleaseUnheld
	}
	s.held--
	s.mu.Unlock()

	s.sem.Release(1)
	return nil
}

// Available returns the number of free slots.
func (s *Semaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity - s.held
}

// Capacity returns the number of slots fixed at construction.
func (s *Semaphore) Capacity() int {
	return s.capacity
}

// String returns "Semaphore(held/capacity)".
func (s *Semaphore) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("Semaphore(%d/%d)", s.held, s.capacity)
}

func (s *Semaphore) markAcquired() {
	s.mu.Lock()
	s.held++
	s.mu.Unlock()
}
