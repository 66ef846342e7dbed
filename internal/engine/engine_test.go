package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"depthsync/internal/book"
	"depthsync/internal/config"
	"depthsync/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartRejectsUnwiredPlace(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Places: []config.PlaceConfig{{
			Exchange: "coinbase",
			Platform: "spot",
			Pairs:    []config.PairConfig{{Base: "btc", Quote: "usd"}},
			System:   config.DefaultSystemConfig(),
		}},
	}

	_, err := Start(context.Background(), cfg, testLogger())
	if err == nil {
		t.Fatal("expected an error for an unwired place")
	}
}

func TestStartWiresBinanceSpotAndReturnsBooks(t *testing.T) {
	original := spawners[types.Place{Exchange: types.Binance, Platform: types.Spot}]
	spawners[types.Place{Exchange: types.Binance, Platform: types.Spot}] = func(ctx context.Context, log *slog.Logger, pairs []types.Pair, sys config.SystemConfig) (map[types.Pair]*book.Handle, error) {
		out := make(map[types.Pair]*book.Handle, len(pairs))
		for _, p := range pairs {
			out[p] = book.NewHandle(sys.BookCapacity)
		}
		return out, nil
	}
	defer func() { spawners[types.Place{Exchange: types.Binance, Platform: types.Spot}] = original }()

	cfg := &config.Config{
		Places: []config.PlaceConfig{{
			Exchange: "binance",
			Platform: "spot",
			Pairs:    []config.PairConfig{{Base: "btc", Quote: "usdt"}, {Base: "eth", Quote: "usdt"}},
			System:   config.DefaultSystemConfig(),
		}},
	}

	e, err := Start(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	books, ok := e.Books(types.Place{Exchange: types.Binance, Platform: types.Spot})
	if !ok {
		t.Fatal("expected binance/spot to be running")
	}
	if len(books) != 2 {
		t.Fatalf("len(books) = %d, want 2", len(books))
	}

	snap := e.CopyBooks()
	if len(snap[types.Place{Exchange: types.Binance, Platform: types.Spot}]) != 2 {
		t.Fatalf("CopyBooks did not include both pairs")
	}
}
