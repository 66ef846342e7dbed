package book

import (
	"sync"

	"depthsync/pkg/types"
)

// Handle is the shared-mutable wrapper around a Book: an exclusive-mutation
// handle is held by exactly one pair-stream worker, and read-only clones are
// handed to any number of observers. A per-book RWMutex is held only for the
// duration of a single event's application or a full snapshot replace — both
// bounded by Capacity() x O(log Capacity()) work — so observer reads are
// essentially unblocked.
//
// A Handle is just a pointer shared across goroutines; Go's garbage
// collector keeps the underlying Book alive for as long as any holder
// retains the pointer, which is what takes the place of the reference
// counting an implementation in a non-GC'd language would need here.
type Handle struct {
	mu   sync.RWMutex
	book *Book
}

// NewHandle creates a handle around a freshly allocated book of the given
// per-side depth capacity.
func NewHandle(cap int) *Handle {
	return &Handle{book: New(cap)}
}

// ReplaceSnapshot fully replaces both sides under the book mutex.
func (h *Handle) ReplaceSnapshot(snap types.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.book.Bids.ShotUpdate(snap.Bids)
	h.book.Asks.ShotUpdate(snap.Asks)
}

// ApplyDiff applies one diff event's bid and ask updates under the book
// mutex. The lock is held only for the duration of applying this one
// event — typically microseconds.
func (h *Handle) ApplyDiff(bids, asks []types.Order) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range bids {
		h.book.Bids.DiffUpdate(o)
	}
	for _, o := range asks {
		h.book.Asks.DiffUpdate(o)
	}
}

// Clone takes a short read lock and returns a deep copy of the book — the
// observer interface. Cloning is per-book: a caller cloning many books
// across a map gets an eventually-consistent view, not a single atomic
// snapshot of all of them.
func (h *Handle) Clone() Book {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.book.Clone()
}

// Capacity returns the book's shared per-side depth capacity.
func (h *Handle) Capacity() int {
	return h.book.Capacity()
}
