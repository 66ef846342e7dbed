package binancespot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"depthsync/pkg/types"
)

// intervalUnit maps exchangeInfo's rateLimits[].interval strings to the
// duration one unit of that interval spans.
func intervalUnit(interval types.RateLimitInterval) (time.Duration, error) {
	switch interval {
	case types.IntervalSecond:
		return time.Second, nil
	case types.IntervalMinute:
		return time.Minute, nil
	case types.IntervalHour:
		return time.Hour, nil
	case types.IntervalDay:
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown rate limit interval %q", interval)
	}
}

// RateLimitWindow is a rate limit expressed as a capacity and the interval
// over which it refills by one unit at a time — the shape ratelimit.New
// consumes.
type RateLimitWindow struct {
	Limit          int
	RefillInterval time.Duration
}

// FetchRateLimits retrieves the venue's published request-rate ceilings via
// GET /api/v3/exchangeInfo and returns the RAW_REQUESTS and REQUEST_WEIGHT
// windows keyed by rate limit type. Other rateLimitType values the venue
// may report (e.g. per-order limits irrelevant to a read-only feed) are
// ignored.
func FetchRateLimits(ctx context.Context, http *resty.Client) (map[types.RateLimitType]RateLimitWindow, error) {
	var result types.ExchangeInfoResponse
	resp, err := http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/api/v3/exchangeInfo")
	if err != nil {
		return nil, fmt.Errorf("fetch rate limits: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, statusErr("fetch rate limits", resp)
	}

	out := make(map[types.RateLimitType]RateLimitWindow, 2)
	for _, entry := range result.RateLimits {
		if entry.RateLimitType != types.RawRequests && entry.RateLimitType != types.RequestWeight {
			continue
		}
		unit, err := intervalUnit(entry.Interval)
		if err != nil {
			return nil, fmt.Errorf("fetch rate limits: %w", err)
		}
		intervalNum := entry.IntervalNum
		if intervalNum == 0 {
			intervalNum = 1
		}
		out[entry.RateLimitType] = RateLimitWindow{
			Limit:          entry.Limit,
			RefillInterval: unit * time.Duration(intervalNum) / time.Duration(entry.Limit),
		}
	}
	return out, nil
}
