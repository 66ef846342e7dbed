package binancespot

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"depthsync/internal/ratelimit"
	"depthsync/pkg/types"
)

// weightForLimit returns the REQUEST_WEIGHT cost of a depth snapshot request
// of the given book size, per the venue's published weight table.
func weightForLimit(limit int) int {
	switch {
	case limit <= 100:
		return 5
	case limit <= 500:
		return 25
	case limit <= 1000:
		return 50
	default:
		return 250
	}
}

// FetchSnapshot fetches a full depth snapshot for pair, sized to cap entries
// per side, after acquiring the request's cost from both the raw-request and
// request-weight buckets. Both are acquired before the call and are never
// returned: a failed request, or a cancellation of the weight acquire after
// the raw permit was granted, still spends what was already acquired.
func FetchSnapshot(ctx context.Context, http *resty.Client, rawTB, weightTB *ratelimit.TokenBucket, pair types.Pair, cap int) (types.Snapshot, error) {
	if err := rawTB.Acquire(ctx, 1); err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot %s: %w", pair, err)
	}
	if err := weightTB.Acquire(ctx, weightForLimit(cap)); err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot %s: %w", pair, err)
	}

	var result types.DepthResponse
	resp, err := http.R().
		SetContext(ctx).
		SetQueryParam("symbol", pair.FusedUpper()).
		SetQueryParam("limit", fmt.Sprintf("%d", cap)).
		SetResult(&result).
		Get("/api/v3/depth")
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot %s: %w", pair, err)
	}
	if !resp.IsSuccess() {
		return types.Snapshot{}, statusErr(fmt.Sprintf("fetch snapshot %s", pair), resp)
	}

	bids, err := decodeLevelsInto(result.Bids)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot %s: decode bids: %w", pair, err)
	}
	asks, err := decodeLevelsInto(result.Asks)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot %s: decode asks: %w", pair, err)
	}

	return types.Snapshot{
		LastUpdateID: result.LastUpdateID,
		Bids:         bids,
		Asks:         asks,
	}, nil
}

func decodeLevelsInto(levels []types.PriceLevel) ([]types.Order, error) {
	orders := make([]types.Order, len(levels))
	for i, lvl := range levels {
		o, err := lvl.Decimal()
		if err != nil {
			return nil, err
		}
		orders[i] = o
	}
	return orders, nil
}
