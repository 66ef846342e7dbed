// Package binancespot implements the Binance Spot venue: REST fetchers for
// exchange metadata and depth snapshots, and a WebSocket connection/worker
// pair that reconciles the combined diff-depth stream against those
// snapshots into long-lived order books.
package binancespot

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	restBaseURL = "https://api.binance.com"
	wsBaseURL   = "wss://stream.binance.com:9443"
)

// newHTTPClient builds the resty client shared by every REST fetcher: a
// fixed base URL, a modest timeout, and a retry policy for 5xx/transport
// errors. This is the venue's only external collaborator that needs
// backoff — the rate limiters throttle request rate, resty's retry covers
// transient failures of an individual request.
func newHTTPClient() *resty.Client {
	return resty.New().
		SetBaseURL(restBaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= http.StatusInternalServerError
		})
}

func statusErr(op string, resp *resty.Response) error {
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), resp.String())
}
