package binancespot

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"depthsync/pkg/types"
)

// DiscoverPairs enumerates every actively trading Binance Spot pair using
// the venue's own REST client. It is not required by the streaming path —
// configured pairs are supplied directly — but lets an operator or the demo
// CLI discover the full tradeable universe instead of hand-maintaining a
// pair list.
func DiscoverPairs(ctx context.Context) ([]types.Pair, error) {
	return FetchPairs(ctx, newHTTPClient())
}

// FetchPairs enumerates every actively trading spot pair via
// GET /api/v3/exchangeInfo?permissions=SPOT&symbolStatus=TRADING.
func FetchPairs(ctx context.Context, http *resty.Client) ([]types.Pair, error) {
	var result types.ExchangeInfoResponse
	resp, err := http.R().
		SetContext(ctx).
		SetQueryParam("permissions", "SPOT").
		SetQueryParam("symbolStatus", "TRADING").
		SetResult(&result).
		Get("/api/v3/exchangeInfo")
	if err != nil {
		return nil, fmt.Errorf("fetch pairs: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, statusErr("fetch pairs", resp)
	}

	pairs := make([]types.Pair, 0, len(result.Symbols))
	for _, sym := range result.Symbols {
		pairs = append(pairs, types.NewPair(sym.BaseAsset, sym.QuoteAsset))
	}
	return pairs, nil
}
