package binancespot

import (
	"context"
	"log/slog"
	"time"

	"depthsync/internal/book"
	"depthsync/internal/chunk"
	"depthsync/internal/latency"
	"depthsync/internal/ratelimit"
	"depthsync/pkg/types"
)

// Config is the user-facing configuration for spawning the Binance Spot
// venue: how deep each book should be, how many streams a single connection
// is allowed to carry, and the reconnect, snapshot-retry and latency
// settings. The pairs to track are passed to Spawn separately.
type Config struct {
	BookCapacity         int
	StreamsPerConnection int
	ReconnectDelay       time.Duration
	SnapshotRetryDelay   time.Duration
	UpdateSpeed          string // "100ms" or "1000ms", the venue diff-stream cadence
	MaxLatency           time.Duration
	MaxLatencyError      time.Duration
	LatencyCheckInterval time.Duration
}

// Spawn builds one book per pair, chunks the pairs across connections of at
// most StreamsPerConnection streams each, and starts one RunConnection
// goroutine per chunk. It returns the pair -> book.Handle map immediately;
// population happens asynchronously as each pair's worker completes its
// first snapshot.
func Spawn(ctx context.Context, log *slog.Logger, pairs []types.Pair, cfg Config) (map[types.Pair]*book.Handle, error) {
	log = log.With("venue", "binance", "platform", "spot")
	http := newHTTPClient()

	limits, err := FetchRateLimits(ctx, http)
	if err != nil {
		return nil, err
	}
	rawWindow := limits[types.RawRequests]
	weightWindow := limits[types.RequestWeight]
	rawTB := ratelimit.New(rawWindow.Limit, rawWindow.RefillInterval)
	weightTB := ratelimit.New(weightWindow.Limit, weightWindow.RefillInterval)

	books := make(map[types.Pair]*book.Handle, len(pairs))
	for _, p := range pairs {
		books[p] = book.NewHandle(cfg.BookCapacity)
	}

	lat := latency.New("binance-spot", cfg.LatencyCheckInterval, log)

	snapshotOf := func(ctx context.Context, pair types.Pair) (types.Snapshot, error) {
		return FetchSnapshot(ctx, http, rawTB, weightTB, pair, cfg.BookCapacity)
	}

	connCfg := ConnectionConfig{
		ReconnectDelay: cfg.ReconnectDelay,
		Worker: WorkerConfig{
			BookCapacity:       cfg.BookCapacity,
			SnapshotRetryDelay: cfg.SnapshotRetryDelay,
			MaxLatency:         cfg.MaxLatency,
			MaxLatencyError:    cfg.MaxLatencyError,
		},
	}

	updateSpeed := cfg.UpdateSpeed
	if updateSpeed == "" {
		updateSpeed = "1000ms"
	}

	chunks := chunk.Pairs(books, cfg.StreamsPerConnection)
	for _, c := range chunks {
		c := c
		go RunConnection(ctx, log, c, snapshotOf, lat, updateSpeed, connCfg)
	}

	go func() {
		<-ctx.Done()
		rawTB.Close()
		weightTB.Close()
		lat.Close()
	}()

	return books, nil
}
