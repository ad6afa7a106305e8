package model

// Order sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Order statuses. The status space is open-ended; only the terminal values
// are enumerated because they drive removal from the open-orders view. Any
// unrecognized status is treated as non-terminal.
const (
	StatusNew      = "NEW"
	StatusFilled   = "FILLED"
	StatusCanceled = "CANCELED"
)

// IsTerminal reports whether a status ends an order's lifecycle.
func IsTerminal(status string) bool {
	return status == StatusFilled || status == StatusCanceled
}

// OrderRecord is one entry in the open-orders view. ID is assigned by the
// producer and stable across updates to the same order.
type OrderRecord struct {
	ID     string
	Side   string  // BUY or SELL
	Price  float64
	Qty    float64
	Status string // open-ended; FILLED/CANCELED are terminal
	TS     int64  // event time (ms since epoch); not monotonic across events
}

// TradeRecord is one entry in the trade history buffer. Immutable once
// created; there are no update-by-id semantics for trades.
type TradeRecord struct {
	ID    string // synthetic if the producer omitted it
	Side  string
	Price float64
	Qty   float64
	PnL   float64
	TS    int64 // event time (ms since epoch)
}
