package book

import (
	"sync"
	"testing"

	"depthsync/pkg/types"
)

func TestBookCloneIsIndependentOfSource(t *testing.T) {
	t.Parallel()
	b := New(5)
	b.Bids.DiffUpdate(ord("10", "1"))
	b.Asks.DiffUpdate(ord("11", "1"))

	clone := b.Clone()
	b.Bids.DiffUpdate(ord("10", "0"))

	assertPrices(t, clone.Bids.Orders(), "10")
	assertPrices(t, b.Bids.Orders())
}

// Scenario A: snapshot establishes book state, then a diff event applies
// cleanly on top of it.
func TestHandleSnapshotThenDiffHappyPath(t *testing.T) {
	t.Parallel()
	h := NewHandle(10)

	h.ReplaceSnapshot(types.Snapshot{
		LastUpdateID: 100,
		Bids:         []types.Order{ord("10", "5"), ord("9", "3")},
		Asks:         []types.Order{ord("11", "4"), ord("12", "2")},
	})

	snap := h.Clone()
	assertPrices(t, snap.Bids.Orders(), "10", "9")
	assertPrices(t, snap.Asks.Orders(), "11", "12")

	h.ApplyDiff(
		[]types.Order{ord("9.5", "1")},
		[]types.Order{ord("11", "0")},
	)

	after := h.Clone()
	assertPrices(t, after.Bids.Orders(), "10", "9.5", "9")
	assertPrices(t, after.Asks.Orders(), "12")
}

func TestHandleReplaceSnapshotOverwritesPriorDiffs(t *testing.T) {
	t.Parallel()
	h := NewHandle(10)
	h.ApplyDiff([]types.Order{ord("5", "1")}, nil)

	h.ReplaceSnapshot(types.Snapshot{
		Bids: []types.Order{ord("8", "2")},
		Asks: []types.Order{},
	})

	snap := h.Clone()
	assertPrices(t, snap.Bids.Orders(), "8")
}

// Concurrent readers cloning while a single writer applies diffs must never
// observe a torn read (the race detector is the real judge here; this just
// exercises the path under -race).
func TestHandleConcurrentCloneDuringApply(t *testing.T) {
	t.Parallel()
	h := NewHandle(20)
	h.ReplaceSnapshot(types.Snapshot{
		Bids: []types.Order{ord("10", "1")},
		Asks: []types.Order{ord("11", "1")},
	})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.ApplyDiff([]types.Order{ord("10", "2")}, []types.Order{ord("11", "2")})
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = h.Clone()
			}
		}
	}()

	wg.Wait()
}

func TestHandleCapacityReflectsUnderlyingBook(t *testing.T) {
	t.Parallel()
	h := NewHandle(7)
	if h.Capacity() != 7 {
		t.Fatalf("Capacity() = %d, want 7", h.Capacity())
	}
}
