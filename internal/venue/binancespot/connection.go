package binancespot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"depthsync/internal/book"
	"depthsync/internal/latency"
	"depthsync/pkg/types"
)

const (
	readTimeout           = 90 * time.Second
	defaultReconnectDelay = time.Second
	maxReconnectWait      = 30 * time.Second
	eventBufferSize       = 64
)

// ConnectionConfig tunes one connection's reconnect and per-pair worker
// behavior.
type ConnectionConfig struct {
	ReconnectDelay time.Duration // initial backoff before the first reconnect attempt; defaults to defaultReconnectDelay if zero
	Worker         WorkerConfig
}

// RunConnection owns one WebSocket socket multiplexing the diff-depth
// streams for every pair in books. It dials the combined-stream endpoint,
// spawns one pair-stream worker per pair, and on any read failure tears the
// whole group down and reconnects from scratch — recycling every pair
// worker rather than trying to resume mid-stream, since a dropped socket
// means every in-flight update-id sequence for this chunk is now suspect.
//
// RunConnection blocks until ctx is cancelled.
func RunConnection(ctx context.Context, log *slog.Logger, books map[types.Pair]*book.Handle, snapshotOf func(ctx context.Context, pair types.Pair) (types.Snapshot, error), lat *latency.Meter, updateSpeed string, cfg ConnectionConfig) {
	backoff := cfg.ReconnectDelay
	if backoff <= 0 {
		backoff = defaultReconnectDelay
	}
	for {
		err := runOnce(ctx, log, books, snapshotOf, lat, updateSpeed, cfg)
		if ctx.Err() != nil {
			return
		}

		log.Warn("connection lost, reconnecting", "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, books map[types.Pair]*book.Handle, snapshotOf func(ctx context.Context, pair types.Pair) (types.Snapshot, error), lat *latency.Meter, updateSpeed string, cfg ConnectionConfig) error {
	url := combinedStreamURL(books, updateSpeed)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	log.Info("connected", "pairs", len(books))

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	routes := make(map[string]chan types.DiffEvent, len(books))
	var wg sync.WaitGroup
	for pair, handle := range books {
		events := make(chan types.DiffEvent, eventBufferSize)
		routes[pair.FusedUpper()] = events

		p, h := pair, handle
		fetch := func(ctx context.Context) (types.Snapshot, error) {
			return snapshotOf(ctx, p)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			RunPairWorker(workerCtx, log, p, h, events, fetch, lat, cfg.Worker)
		}()
	}
	defer func() {
		cancelWorkers()
		for _, ch := range routes {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		dispatch(log, routes, msg)
	}
}

// combinedStreamURL builds the multi-stream subscription URI for every pair
// in books, e.g. wss://.../stream?streams=btcusdt@depth@100ms/ethusdt@depth@100ms.
func combinedStreamURL(books map[types.Pair]*book.Handle, updateSpeed string) string {
	streams := make([]string, 0, len(books))
	for pair := range books {
		streams = append(streams, pair.Fused()+"@depth@"+updateSpeed)
	}
	return wsBaseURL + "/stream?streams=" + strings.Join(streams, "/")
}

// dispatch decodes one combined-stream frame and routes it to the matching
// pair's channel by symbol. A pair with a full channel gets its event
// dropped with a warning rather than blocking the whole connection's read
// loop — one slow consumer must not stall every other pair's stream.
func dispatch(log *slog.Logger, routes map[string]chan types.DiffEvent, msg []byte) {
	var envelope types.WSDiffEnvelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		log.Debug("ignoring undecodable frame", "error", err)
		return
	}

	ch, ok := routes[envelope.Data.Symbol]
	if !ok {
		log.Debug("no worker for symbol", "symbol", envelope.Data.Symbol)
		return
	}

	ev, err := envelope.Data.ToDiffEvent()
	if err != nil {
		log.Error("decode diff event", "error", err, "symbol", envelope.Data.Symbol)
		return
	}

	select {
	case ch <- ev:
	default:
		log.Warn("pair event channel full, dropping update", "symbol", envelope.Data.Symbol)
	}
}
