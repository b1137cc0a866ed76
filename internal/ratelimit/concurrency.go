package ratelimit

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ConcurrencyLimiter caps simultaneous in-flight operations. Waiters are
// admitted in arrival order and are never rejected, only delayed.
type ConcurrencyLimiter struct {
	sem      *semaphore.Weighted
	size     int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewConcurrencyLimiter creates a limiter with n slots (minimum 1).
func NewConcurrencyLimiter(n int) *ConcurrencyLimiter {
	if n < 1 {
		n = 1
	}
	return &ConcurrencyLimiter{
		sem:  semaphore.NewWeighted(int64(n)),
		size: int64(n),
	}
}

// Do runs fn once a slot is free. It returns ctx.Err() if the context ends
// while waiting; fn is not called in that case.
func (c *ConcurrencyLimiter) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}

	return fn(ctx)
}

// InFlight returns the number of operations currently running.
func (c *ConcurrencyLimiter) InFlight() int64 {
	return c.inFlight.Load()
}

// Peak returns the highest in-flight count observed.
func (c *ConcurrencyLimiter) Peak() int64 {
	return c.peak.Load()
}

// Size returns the slot count.
func (c *ConcurrencyLimiter) Size() int64 {
	return c.size
}
