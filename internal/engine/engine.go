// Package engine is the root of the order book synchronization system.
//
// Start wires one venue spawner per configured Place, each of which
// builds its own books and runs its own connection/worker goroutines
// independently. There is no cross-place coordination — a single dropped
// connection on one venue never touches another venue's books.
//
// Lifecycle: Start(ctx, cfg, logger) -> *Engine, then Stop() (or cancel ctx directly)
// when the caller is done observing.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"depthsync/internal/book"
	"depthsync/internal/config"
	"depthsync/internal/venue/binancespot"
	"depthsync/pkg/types"
)

// spawner starts one Place's venue and returns its pair -> book.Handle map.
// Binding new venues to the engine means adding one entry to the spawners
// dispatch table below — no other engine code needs to know venue internals.
type spawner func(ctx context.Context, log *slog.Logger, pairs []types.Pair, sys config.SystemConfig) (map[types.Pair]*book.Handle, error)

var spawners = map[types.Place]spawner{
	{Exchange: types.Binance, Platform: types.Spot}: spawnBinanceSpot,
}

func spawnBinanceSpot(ctx context.Context, log *slog.Logger, pairs []types.Pair, sys config.SystemConfig) (map[types.Pair]*book.Handle, error) {
	return binancespot.Spawn(ctx, log, pairs, binancespot.Config{
		BookCapacity:         sys.BookCapacity,
		StreamsPerConnection: sys.StreamsPerConnection,
		ReconnectDelay:       sys.ReconnectDelay,
		SnapshotRetryDelay:   sys.SnapshotRetryDelay,
		UpdateSpeed:          sys.UpdateSpeed,
		MaxLatency:           sys.MaxLatency,
		MaxLatencyError:      sys.MaxLatencyError,
		LatencyCheckInterval: sys.LatencyCheckInterval,
	})
}

// Engine owns every Place's book map for the lifetime of a run.
type Engine struct {
	books  map[types.Place]map[types.Pair]*book.Handle
	cancel context.CancelFunc
	logger *slog.Logger
}

// Start builds and runs every configured Place, returning once every
// Place's books exist (population of individual books still happens
// asynchronously, pair by pair, as each completes its first snapshot).
// An unrecognized (exchange, platform) pair in cfg is a configuration
// error — there is no silent skip.
func Start(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	runCtx, cancel := context.WithCancel(ctx)

	e := &Engine{
		books:  make(map[types.Place]map[types.Pair]*book.Handle, len(cfg.Places)),
		cancel: cancel,
		logger: logger,
	}

	for _, pc := range cfg.Places {
		place := types.Place{Exchange: types.Exchange(pc.Exchange), Platform: types.Platform(pc.Platform)}
		spawn, ok := spawners[place]
		if !ok {
			cancel()
			return nil, fmt.Errorf("no venue wired for %s", place)
		}

		pairs := make([]types.Pair, len(pc.Pairs))
		for i, p := range pc.Pairs {
			pairs[i] = types.NewPair(p.Base, p.Quote)
		}

		books, err := spawn(runCtx, logger, pairs, pc.System)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("start %s: %w", place, err)
		}
		e.books[place] = books
	}

	return e, nil
}

// Books returns the live pair -> book.Handle map for a Place, and whether
// that Place is running.
func (e *Engine) Books(place types.Place) (map[types.Pair]*book.Handle, bool) {
	books, ok := e.books[place]
	return books, ok
}

// CopyBooks takes a consistent-enough snapshot of every book across every
// running Place. Each book is cloned under its own short-held lock, so the
// overall result is an eventually-consistent view across places and
// pairs — not a single atomic snapshot of the whole engine.
func (e *Engine) CopyBooks() map[types.Place]map[types.Pair]book.Book {
	out := make(map[types.Place]map[types.Pair]book.Book, len(e.books))
	for place, books := range e.books {
		copied := make(map[types.Pair]book.Book, len(books))
		for pair, h := range books {
			copied[pair] = h.Clone()
		}
		out[place] = copied
	}
	return out
}

// Stop cancels every Place's running goroutines. It does not block for
// them to finish — callers that need a clean shutdown should give their own
// context a grace period before Stop and rely on each venue's teardown
// (rate limiters and the latency meter are closed from the venue's own
// context-cancellation watcher).
func (e *Engine) Stop() {
	e.cancel()
}
