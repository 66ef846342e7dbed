package binancespot

import (
	"context"
	"log/slog"
	"time"

	"depthsync/internal/book"
	"depthsync/internal/latency"
	"depthsync/pkg/types"
)

// WorkerConfig tunes one pair's reconciliation loop.
type WorkerConfig struct {
	BookCapacity       int
	SnapshotRetryDelay time.Duration
	MaxLatency         time.Duration // elapsed-since-event-time above this logs a high-latency warning
	MaxLatencyError    time.Duration // a negative elapsed (event claims to be from the future) beyond this logs a clock-skew error
}

// SnapshotFetcher fetches a fresh full-depth snapshot for one pair.
type SnapshotFetcher func(ctx context.Context) (types.Snapshot, error)

// RunPairWorker reconciles a single pair's diff-event stream against REST
// snapshots, keeping handle's book current. It returns when ctx is
// cancelled or when events is closed — the latter means the owning
// connection worker has given up on this pair (reconnect, shutdown) and
// there will be no more events; the caller does not restart this worker,
// it discards it along with the rest of that connection's pairs.
//
// events carries every diff the connection worker decoded for this pair, in
// arrival order, without gaps introduced by multiplexing — gaps in the
// update-id sequence are a property of the venue stream itself, which this
// state machine detects and recovers from by re-snapshotting.
func RunPairWorker(ctx context.Context, log *slog.Logger, pair types.Pair, handle *book.Handle, events <-chan types.DiffEvent, fetch SnapshotFetcher, lat *latency.Meter, cfg WorkerConfig) {
	log = log.With("pair", pair.String())

fromSnapshot:
	for {
		snap, err := fetchWithRetry(ctx, log, fetch, cfg.SnapshotRetryDelay)
		if err != nil {
			// context was cancelled while retrying
			return
		}
		handle.ReplaceSnapshot(snap)
		lastUpdateID := snap.LastUpdateID

		// Aligning: discard stale events and wait for the first event whose
		// range straddles the snapshot, then fall straight into Streaming
		// with that event already applied.
		var prevU uint64
		aligned := false
		for !aligned {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				checkLatency(log, ev, lat, cfg)

				if ev.FinalUpdateID <= lastUpdateID {
					continue // stale, predates the snapshot
				}
				if ev.FirstUpdateID > lastUpdateID+1 {
					log.Warn("gap while aligning to snapshot, re-snapshotting",
						"snapshot_id", lastUpdateID, "event_first", ev.FirstUpdateID)
					continue fromSnapshot
				}

				handle.ApplyDiff(ev.Bids, ev.Asks)
				prevU = ev.FinalUpdateID
				aligned = true
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				checkLatency(log, ev, lat, cfg)

				if ev.FirstUpdateID != prevU+1 {
					log.Warn("gap in update-id sequence, re-snapshotting",
						"expected", prevU+1, "got", ev.FirstUpdateID)
					continue fromSnapshot
				}

				handle.ApplyDiff(ev.Bids, ev.Asks)
				prevU = ev.FinalUpdateID
			case <-ctx.Done():
				return
			}
		}
	}
}

func fetchWithRetry(ctx context.Context, log *slog.Logger, fetch SnapshotFetcher, delay time.Duration) (types.Snapshot, error) {
	for {
		snap, err := fetch(ctx)
		if err == nil {
			return snap, nil
		}
		log.Warn("snapshot fetch failed, retrying", "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return types.Snapshot{}, ctx.Err()
		}
	}
}

func checkLatency(log *slog.Logger, ev types.DiffEvent, lat *latency.Meter, cfg WorkerConfig) {
	eventTime := time.UnixMilli(int64(ev.EventTimeMs))
	elapsed := time.Since(eventTime)

	switch {
	case elapsed > cfg.MaxLatency:
		if lat != nil {
			lat.Observe(elapsed)
		}
		log.Warn("high event latency", "elapsed", elapsed)
	case -elapsed > cfg.MaxLatencyError:
		log.Error("event timestamp is ahead of local clock beyond tolerance", "elapsed", elapsed)
	}
}
