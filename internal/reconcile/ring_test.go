package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amadeus-trading/console/internal/model"
)

func TestTradeRing_PushAndNewest(t *testing.T) {
	r := newTradeRing(3)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Newest())

	r.Push(model.TradeRecord{ID: "1"})
	r.Push(model.TradeRecord{ID: "2"})

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"2", "1"}, ringIDs(r))
}

func TestTradeRing_EvictsOldest(t *testing.T) {
	r := newTradeRing(3)
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		r.Push(model.TradeRecord{ID: id})
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"5", "4", "3"}, ringIDs(r))
}

func TestTradeRing_CapFloor(t *testing.T) {
	r := newTradeRing(0)
	r.Push(model.TradeRecord{ID: "1"})
	r.Push(model.TradeRecord{ID: "2"})

	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"2"}, ringIDs(r))
}

func ringIDs(r *tradeRing) []string {
	out := make([]string, 0, r.Len())
	for _, tr := range r.Newest() {
		out = append(out, tr.ID)
	}
	return out
}
