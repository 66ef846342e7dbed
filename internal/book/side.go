// Package book implements the in-memory limit order book: two price-sorted
// Sides bounded to a capacity, and a Book pairing them. Mutation methods are
// not internally synchronized — callers needing concurrent access use
// Handle, which wraps a Book behind a short-held mutex.
package book

import (
	"sort"

	"github.com/shopspring/decimal"

	"depthsync/pkg/types"
)

// Side is an ordered sequence of orders, strictly monotonic in price —
// descending for bids, ascending for asks — and bounded to a capacity.
// No two entries share a price; len never exceeds cap.
type Side struct {
	orders []types.Order
	cap    int
	desc   bool // true for bids (descending), false for asks (ascending)
}

// NewSide creates an empty side with the given capacity and direction.
func NewSide(cap int, desc bool) *Side {
	return &Side{
		orders: make([]types.Order, 0, cap),
		cap:    cap,
		desc:   desc,
	}
}

// Orders returns the side's entries in its sorted direction. The returned
// slice is shared with the Side's internal storage and must not be mutated
// by the caller.
func (s *Side) Orders() []types.Order {
	return s.orders
}

// Capacity returns the side's maximum depth.
func (s *Side) Capacity() int {
	return s.cap
}

// Len returns the number of resting price levels.
func (s *Side) Len() int {
	return len(s.orders)
}

// Clone returns a deep copy suitable for handing to an observer.
func (s *Side) Clone() *Side {
	c := &Side{
		orders: make([]types.Order, len(s.orders)),
		cap:    s.cap,
		desc:   s.desc,
	}
	copy(c.orders, s.orders)
	return c
}

// ShotUpdate replaces the side's entire contents. The caller guarantees
// orders is pre-sorted in the side's direction and len(orders) <= cap.
func (s *Side) ShotUpdate(orders []types.Order) {
	cp := make([]types.Order, len(orders))
	copy(cp, orders)
	s.orders = cp
}

// DiffUpdate applies a single incremental update.
//
// If order.Size is zero, the order at order.Price is removed if present;
// absent is a silent no-op (the venue may echo removals for unknown prices).
//
// Otherwise the price is located by binary search: on a hit the size is
// overwritten in place; on a miss at insertion index i, entries landing at
// i >= cap are dropped (outside visible depth), and when the side is already
// at capacity the worst-price (last) entry is evicted before the new entry
// is inserted — in that order, so length never exceeds cap at any point.
func (s *Side) DiffUpdate(order types.Order) {
	idx, found := s.search(order.Price)

	if order.IsRemoval() {
		if found {
			s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
		}
		return
	}

	if found {
		s.orders[idx].Size = order.Size
		return
	}

	if idx >= s.cap {
		return
	}

	if len(s.orders) == s.cap {
		s.orders = s.orders[:len(s.orders)-1]
	}

	s.orders = append(s.orders, types.Order{})
	copy(s.orders[idx+1:], s.orders[idx:])
	s.orders[idx] = order
}

// search returns the index of price if present, and whether it was found.
// When absent, idx is the insertion index that keeps the side sorted in its
// direction (ascending for asks, descending for bids).
func (s *Side) search(price decimal.Decimal) (int, bool) {
	n := len(s.orders)
	var idx int
	if s.desc {
		idx = sort.Search(n, func(i int) bool {
			return s.orders[i].Price.Cmp(price) <= 0
		})
	} else {
		idx = sort.Search(n, func(i int) bool {
			return s.orders[i].Price.Cmp(price) >= 0
		})
	}
	if idx < n && s.orders[idx].Price.Equal(price) {
		return idx, true
	}
	return idx, false
}
