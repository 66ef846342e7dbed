package binancespot

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"depthsync/internal/book"
	"depthsync/pkg/types"
)

func TestCombinedStreamURLIncludesEveryPair(t *testing.T) {
	t.Parallel()
	books := map[types.Pair]*book.Handle{
		types.NewPair("btc", "usdt"): book.NewHandle(10),
		types.NewPair("eth", "usdt"): book.NewHandle(10),
	}

	url := combinedStreamURL(books, "100ms")

	if !strings.HasPrefix(url, wsBaseURL+"/stream?streams=") {
		t.Fatalf("unexpected url prefix: %s", url)
	}
	if !strings.Contains(url, "btcusdt@depth@100ms") {
		t.Fatalf("missing btcusdt stream: %s", url)
	}
	if !strings.Contains(url, "ethusdt@depth@100ms") {
		t.Fatalf("missing ethusdt stream: %s", url)
	}
}

func TestDispatchRoutesBySymbol(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	btcCh := make(chan types.DiffEvent, 1)
	ethCh := make(chan types.DiffEvent, 1)
	routes := map[string]chan types.DiffEvent{
		"BTCUSDT": btcCh,
		"ETHUSDT": ethCh,
	}

	env := types.WSDiffEnvelope{
		Stream: "btcusdt@depth@100ms",
		Data: types.WSDiffPayload{
			Symbol:        "BTCUSDT",
			FirstUpdateID: 1,
			FinalUpdateID: 2,
			Bids:          []types.PriceLevel{{"10", "1"}},
		},
	}
	msg, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}

	dispatch(log, routes, msg)

	select {
	case ev := <-btcCh:
		if ev.FinalUpdateID != 2 {
			t.Fatalf("FinalUpdateID = %d, want 2", ev.FinalUpdateID)
		}
	default:
		t.Fatal("expected an event routed to btcCh")
	}

	select {
	case <-ethCh:
		t.Fatal("unexpected event routed to ethCh")
	default:
	}
}

func TestDispatchDropsEventForUnknownSymbol(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	routes := map[string]chan types.DiffEvent{
		"BTCUSDT": make(chan types.DiffEvent, 1),
	}

	env := types.WSDiffEnvelope{Data: types.WSDiffPayload{Symbol: "DOGEUSDT"}}
	msg, _ := json.Marshal(env)

	dispatch(log, routes, msg) // must not panic
}

func TestDispatchDropsOnFullChannelWithoutBlocking(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	full := make(chan types.DiffEvent, 1)
	full <- types.DiffEvent{}
	routes := map[string]chan types.DiffEvent{"BTCUSDT": full}

	env := types.WSDiffEnvelope{Data: types.WSDiffPayload{Symbol: "BTCUSDT", FirstUpdateID: 5, FinalUpdateID: 6}}
	msg, _ := json.Marshal(env)

	done := make(chan struct{})
	go func() {
		dispatch(log, routes, msg)
		close(done)
	}()
	<-done // would hang here if dispatch blocked on the full channel
}

func TestDispatchIgnoresUndecodableFrame(t *testing.T) {
	t.Parallel()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	routes := map[string]chan types.DiffEvent{}

	dispatch(log, routes, []byte("not json")) // must not panic
}
