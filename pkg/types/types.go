// Package types defines shared data structures used across all packages.
//
// This is the common vocabulary for the order book synchronization engine —
// pairs, places, orders, REST response shapes, and WebSocket event payloads.
// It has no dependencies on internal packages, so it can be imported by any
// layer without import cycles.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Routing keys
// ————————————————————————————————————————————————————————————————————————

// Exchange identifies a venue operator.
type Exchange string

const (
	Binance Exchange = "binance"
)

// Platform identifies a product line within an Exchange.
type Platform string

const (
	Spot Platform = "spot"
)

// Place is a (venue, platform) routing key. It is comparable and used as a
// map key throughout the engine.
type Place struct {
	Exchange Exchange
	Platform Platform
}

func (p Place) String() string {
	return fmt.Sprintf("%s/%s", p.Exchange, p.Platform)
}

// Pair is a (base, quote) trading instrument. Both fields are lowercase
// asset identifiers. Pair is comparable and used as a map key.
type Pair struct {
	Base  string
	Quote string
}

// NewPair lowercases both legs so Pair is always in canonical subscription
// form regardless of how the caller or a REST response cased it.
func NewPair(base, quote string) Pair {
	return Pair{Base: strings.ToLower(base), Quote: strings.ToLower(quote)}
}

// Fused returns the venue-native concatenated symbol in lowercase
// subscription form, e.g. "btcusdt".
func (p Pair) Fused() string {
	return p.Base + p.Quote
}

// FusedUpper returns the uppercase REST/event-symbol form, e.g. "BTCUSDT".
func (p Pair) FusedUpper() string {
	return strings.ToUpper(p.Fused())
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", strings.ToUpper(p.Base), strings.ToUpper(p.Quote))
}

// ————————————————————————————————————————————————————————————————————————
// Order book primitives
// ————————————————————————————————————————————————————————————————————————

// Order is a single price level: a price and a size, both fixed-precision
// decimal. A size of zero is the removal sentinel in diff streams — it is
// never stored as book state.
type Order struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// IsRemoval reports whether this order represents a removal instruction
// (size == 0) rather than an upsert.
func (o Order) IsRemoval() bool {
	return o.Size.IsZero()
}

// Snapshot is a full depth snapshot fetched via REST, tagged with a
// venue-assigned monotonic sequence number.
type Snapshot struct {
	LastUpdateID uint64
	Bids         []Order
	Asks         []Order
}

// DiffEvent is an incremental book update carrying an inclusive
// [FirstUpdateID, FinalUpdateID] range. A single event encapsulates every
// book mutation from U to u.
type DiffEvent struct {
	EventTimeMs    uint64
	Symbol         string
	FirstUpdateID  uint64
	FinalUpdateID  uint64
	Bids           []Order
	Asks           []Order
}

// ————————————————————————————————————————————————————————————————————————
// Venue REST response shapes (Binance Spot wire format)
// ————————————————————————————————————————————————————————————————————————

// RateLimitType enumerates the rate-limit buckets the engine cares about.
// Other rateLimitType values present in a venue's exchangeInfo response are
// ignored.
type RateLimitType string

const (
	RawRequests    RateLimitType = "RAW_REQUESTS"
	RequestWeight  RateLimitType = "REQUEST_WEIGHT"
)

// RateLimitInterval enumerates the unit a rate limit's window is expressed in.
type RateLimitInterval string

const (
	IntervalSecond RateLimitInterval = "SECOND"
	IntervalMinute RateLimitInterval = "MINUTE"
	IntervalHour   RateLimitInterval = "HOUR"
	IntervalDay    RateLimitInterval = "DAY"
)

// RateLimitEntry is one element of exchangeInfo's rateLimits[] array.
type RateLimitEntry struct {
	RateLimitType RateLimitType     `json:"rateLimitType"`
	Interval      RateLimitInterval `json:"interval"`
	IntervalNum   uint32            `json:"intervalNum"`
	Limit         int               `json:"limit"`
}

// SymbolEntry is one element of exchangeInfo's symbols[] array — enough of
// it to enumerate tradeable pairs.
type SymbolEntry struct {
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Status     string `json:"status"`
}

// ExchangeInfoResponse is the venue's exchangeInfo REST response, trimmed
// to the fields the engine consumes.
type ExchangeInfoResponse struct {
	RateLimits []RateLimitEntry `json:"rateLimits"`
	Symbols    []SymbolEntry    `json:"symbols"`
}

// PriceLevel is the wire representation of a single book entry:
// ["price", "size"] as strings, per the venue's JSON array-of-arrays
// encoding.
type PriceLevel [2]string

// Decimal parses a wire PriceLevel into an Order.
func (pl PriceLevel) Decimal() (Order, error) {
	price, err := decimal.NewFromString(pl[0])
	if err != nil {
		return Order{}, fmt.Errorf("parse price %q: %w", pl[0], err)
	}
	size, err := decimal.NewFromString(pl[1])
	if err != nil {
		return Order{}, fmt.Errorf("parse size %q: %w", pl[1], err)
	}
	return Order{Price: price, Size: size}, nil
}

// DepthResponse is the venue's depth snapshot REST response.
type DepthResponse struct {
	LastUpdateID uint64       `json:"lastUpdateId"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
}

// ————————————————————————————————————————————————————————————————————————
// WebSocket wire envelope (Binance Spot diff-depth stream)
// ————————————————————————————————————————————————————————————————————————

// WSDiffPayload is the inner "data" object of a combined-stream envelope,
// field names matching the venue's wire JSON verbatim.
type WSDiffPayload struct {
	EventTimeMs   uint64       `json:"E"`
	Symbol        string       `json:"s"`
	FirstUpdateID uint64       `json:"U"`
	FinalUpdateID uint64       `json:"u"`
	Bids          []PriceLevel `json:"b"`
	Asks          []PriceLevel `json:"a"`
}

// WSDiffEnvelope wraps a single-stream payload the way the combined-stream
// endpoint (`/stream?streams=...`) does: `{"stream": "...", "data": {...}}`.
type WSDiffEnvelope struct {
	Stream string        `json:"stream"`
	Data   WSDiffPayload `json:"data"`
}

// ToDiffEvent converts the wire payload into the internal DiffEvent,
// parsing decimal price levels.
func (p WSDiffPayload) ToDiffEvent() (DiffEvent, error) {
	bids, err := decodeLevels(p.Bids)
	if err != nil {
		return DiffEvent{}, fmt.Errorf("decode bids: %w", err)
	}
	asks, err := decodeLevels(p.Asks)
	if err != nil {
		return DiffEvent{}, fmt.Errorf("decode asks: %w", err)
	}
	return DiffEvent{
		EventTimeMs:   p.EventTimeMs,
		Symbol:        p.Symbol,
		FirstUpdateID: p.FirstUpdateID,
		FinalUpdateID: p.FinalUpdateID,
		Bids:          bids,
		Asks:          asks,
	}, nil
}

func decodeLevels(levels []PriceLevel) ([]Order, error) {
	orders := make([]Order, len(levels))
	for i, lvl := range levels {
		o, err := lvl.Decimal()
		if err != nil {
			return nil, err
		}
		orders[i] = o
	}
	return orders, nil
}
