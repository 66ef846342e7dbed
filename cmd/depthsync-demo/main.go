// depthsync-demo is a thin CLI wrapper around the engine: load config, start
// every configured venue, and print each tracked pair's best bid/ask once a
// second until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"depthsync/internal/config"
	"depthsync/internal/engine"
	"depthsync/internal/venue/binancespot"
	"depthsync/pkg/types"
)

func main() {
	discover := flag.Bool("discover", false, "replace each binance/spot place's configured pairs with every actively trading pair fetched from the venue")
	flag.Parse()

	cfgPath := "configs/config.yaml"
	if p := os.Getenv("DEPTHSYNC_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}

	if *discover {
		if err := discoverPairs(context.Background(), cfg); err != nil {
			slog.Error("failed to discover pairs", "error", err)
			os.Exit(1)
		}
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := engine.Start(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}
	logger.Info("depthsync started", "places", len(cfg.Places))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			printBestPrices(eng)
		case <-ctx.Done():
			logger.Info("shutting down")
			eng.Stop()
			return
		}
	}
}

// discoverPairs replaces every binance/spot place's configured pair list
// with the full set of actively trading pairs fetched from the venue,
// instead of the hand-maintained list in the config file.
func discoverPairs(ctx context.Context, cfg *config.Config) error {
	var discovered []config.PairConfig
	for i := range cfg.Places {
		place := &cfg.Places[i]
		if place.Exchange != string(types.Binance) || place.Platform != string(types.Spot) {
			continue
		}
		if discovered == nil {
			pairs, err := binancespot.DiscoverPairs(ctx)
			if err != nil {
				return err
			}
			discovered = make([]config.PairConfig, len(pairs))
			for j, p := range pairs {
				discovered[j] = config.PairConfig{Base: p.Base, Quote: p.Quote}
			}
		}
		place.Pairs = discovered
	}
	return nil
}

func printBestPrices(eng *engine.Engine) {
	snapshot := eng.CopyBooks()

	places := make([]types.Place, 0, len(snapshot))
	for place := range snapshot {
		places = append(places, place)
	}
	sort.Slice(places, func(i, j int) bool { return places[i].String() < places[j].String() })

	for _, place := range places {
		books := snapshot[place]
		pairs := make([]types.Pair, 0, len(books))
		for pair := range books {
			pairs = append(pairs, pair)
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })

		for _, pair := range pairs {
			b := books[pair]
			var bid, ask string
			if len(b.Bids.Orders()) > 0 {
				bid = b.Bids.Orders()[0].Price.String()
			}
			if len(b.Asks.Orders()) > 0 {
				ask = b.Asks.Orders()[0].Price.String()
			}
			fmt.Printf("%-12s %-10s bid=%-12s ask=%s\n", place, pair, bid, ask)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
