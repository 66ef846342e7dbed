// Package ratelimit implements a token-bucket limiter whose capacity refills
// on a fixed background tick, used to throttle REST calls against a venue's
// published rate limits.
//
// This is deliberately not built on golang.org/x/sync/semaphore.Weighted:
// that type's Release panics if released beyond what has been net-acquired,
// which does not express a bucket that tops itself back up from an empty
// baseline on its own schedule, independent of any acquire/release pairing.
// A small mutex-guarded waiter queue gives the same FCFS fairness as the
// upstream implementation's semaphore without that mismatch.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrExceedsCapacity is returned by Acquire when the request can never be
// satisfied because it exceeds the bucket's total capacity.
var ErrExceedsCapacity = errors.New("ratelimit: requested permits exceed bucket capacity")

type waiter struct {
	n     int
	grant chan struct{}
}

// TokenBucket holds up to capacity tokens, refilling by one per tick. A tick
// that fires while the bucket is already full is skipped rather than queued
// — the bucket never exceeds capacity regardless of how long it sat idle.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	waiters  []*waiter

	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New creates a bucket starting full at capacity and spawns the background
// refill goroutine. Close must be called to stop that goroutine.
func New(capacity int, refillInterval time.Duration) *TokenBucket {
	tb := &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go tb.refillLoop(refillInterval)
	return tb
}

func (tb *TokenBucket) refillLoop(interval time.Duration) {
	defer close(tb.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tb.mu.Lock()
			if tb.tokens < tb.capacity {
				tb.tokens++
			}
			tb.grantLocked()
			tb.mu.Unlock()
		case <-tb.stop:
			return
		}
	}
}

// grantLocked hands tokens to queued waiters in arrival order, stopping at
// the first waiter whose request the current balance can't cover — a
// waiter never receives fewer tokens than it asked for, and no waiter
// behind it can jump the queue.
func (tb *TokenBucket) grantLocked() {
	for len(tb.waiters) > 0 {
		w := tb.waiters[0]
		if tb.tokens < w.n {
			return
		}
		tb.tokens -= w.n
		tb.waiters = tb.waiters[1:]
		close(w.grant)
	}
}

// Acquire blocks until n tokens are available and consumes them atomically,
// or until ctx is cancelled. On cancellation no tokens are consumed on
// behalf of this call — unless the grant had already been made concurrently
// with the cancellation, in which case Acquire still reports success since
// the tokens are already spent and cannot be returned to the bucket.
func (tb *TokenBucket) Acquire(ctx context.Context, n int) error {
	if n > tb.capacity {
		return fmt.Errorf("%w: requested %d, capacity %d", ErrExceedsCapacity, n, tb.capacity)
	}

	tb.mu.Lock()
	if len(tb.waiters) == 0 && tb.tokens >= n {
		tb.tokens -= n
		tb.mu.Unlock()
		return nil
	}
	w := &waiter{n: n, grant: make(chan struct{})}
	tb.waiters = append(tb.waiters, w)
	tb.mu.Unlock()

	select {
	case <-w.grant:
		return nil
	case <-ctx.Done():
		tb.mu.Lock()
		granted := false
		select {
		case <-w.grant:
			granted = true
		default:
			for i, q := range tb.waiters {
				if q == w {
					tb.waiters = append(tb.waiters[:i], tb.waiters[i+1:]...)
					break
				}
			}
		}
		tb.mu.Unlock()
		if granted {
			return nil
		}
		return ctx.Err()
	}
}

// Close stops the refill goroutine. Safe to call more than once; Acquire
// calls already in flight will simply never be granted past this point if
// the bucket is empty.
func (tb *TokenBucket) Close() {
	tb.closeOnce.Do(func() {
		close(tb.stop)
	})
	<-tb.done
}

// Available reports the current token balance, for diagnostics and tests.
func (tb *TokenBucket) Available() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tokens
}
