package book

// Book is one trading pair's order book: two sides sharing a capacity.
// There is no cross-side constraint enforced here — the venue feed may
// temporarily cross, and the engine does not arbitrate.
type Book struct {
	Bids *Side
	Asks *Side
}

// New creates an empty book with the given per-side depth capacity.
func New(cap int) *Book {
	return &Book{
		Bids: NewSide(cap, true),
		Asks: NewSide(cap, false),
	}
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() Book {
	return Book{
		Bids: b.Bids.Clone(),
		Asks: b.Asks.Clone(),
	}
}

// Capacity returns the book's shared per-side depth capacity.
func (b *Book) Capacity() int {
	return b.Bids.Capacity()
}
