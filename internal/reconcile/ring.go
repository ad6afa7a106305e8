package reconcile

import "github.com/amadeus-trading/console/internal/model"

// tradeRing is a fixed-capacity buffer of trade records. Once the cap is
// exceeded the oldest entries are discarded, never the newest.
type tradeRing struct {
	buf   []model.TradeRecord
	next  int // write position
	count int
}

func newTradeRing(cap int) *tradeRing {
	if cap < 1 {
		cap = 1
	}
	return &tradeRing{buf: make([]model.TradeRecord, cap)}
}

// Push appends a trade, evicting the oldest entry when full.
func (r *tradeRing) Push(t model.TradeRecord) {
	r.buf[r.next] = t
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Len returns the number of retained trades.
func (r *tradeRing) Len() int {
	return r.count
}

// Newest returns the retained trades most-recent-first.
func (r *tradeRing) Newest() []model.TradeRecord {
	out := make([]model.TradeRecord, 0, r.count)
	i := r.next - 1
	for k := 0; k < r.count; k++ {
		if i < 0 {
			i = len(r.buf) - 1
		}
		out = append(out, r.buf[i])
		i--
	}
	return out
}
