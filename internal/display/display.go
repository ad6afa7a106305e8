// Package display renders the reconciled views as terminal tables. It is a
// pure consumer: everything it shows comes from a Snapshot pull plus the
// connection and bot status queries.
package display

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/amadeus-trading/console/internal/api"
	"github.com/amadeus-trading/console/internal/model"
	"github.com/amadeus-trading/console/internal/reconcile"
	"github.com/amadeus-trading/console/internal/stream"
)

// Renderer writes the operator view to a terminal.
type Renderer struct {
	out       io.Writer
	maxOrders int
	maxTrades int
}

// New creates a Renderer writing to w, showing at most maxOrders and
// maxTrades rows per table.
func New(w io.Writer, maxOrders, maxTrades int) *Renderer {
	if maxOrders < 1 {
		maxOrders = 20
	}
	if maxTrades < 1 {
		maxTrades = 20
	}
	return &Renderer{out: w, maxOrders: maxOrders, maxTrades: maxTrades}
}

// Render writes one full refresh of the operator view.
func (r *Renderer) Render(snap reconcile.Snapshot, conn stream.Status, bot api.BotStatus, botKnown bool) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(r.out, "\n[%s] feed: %s", now, connLabel(conn))
	if botKnown {
		fmt.Fprintf(r.out, " | bot: %s", botLabel(bot))
	}
	fmt.Fprintln(r.out)

	r.renderOrders(snap.OpenOrders)
	r.renderTrades(snap.Trades)
}

func (r *Renderer) renderOrders(orders []model.OrderRecord) {
	fmt.Fprintf(r.out, "open orders (%d)\n", len(orders))
	if len(orders) == 0 {
		return
	}
	if len(orders) > r.maxOrders {
		orders = orders[:r.maxOrders]
	}

	table := tablewriter.NewWriter(r.out)
	table.Header("ID", "Side", "Price", "Qty", "Status", "Time")
	for _, o := range orders {
		table.Append(o.ID, o.Side,
			fmt.Sprintf("%.8g", o.Price),
			fmt.Sprintf("%.8g", o.Qty),
			o.Status,
			msClock(o.TS),
		)
	}
	table.Render()
}

func (r *Renderer) renderTrades(trades []model.TradeRecord) {
	fmt.Fprintf(r.out, "recent trades (%d)\n", len(trades))
	if len(trades) == 0 {
		return
	}
	if len(trades) > r.maxTrades {
		trades = trades[:r.maxTrades]
	}

	table := tablewriter.NewWriter(r.out)
	table.Header("Time", "Side", "Price", "Qty", "PnL")
	for _, t := range trades {
		table.Append(msClock(t.TS), t.Side,
			fmt.Sprintf("%.8g", t.Price),
			fmt.Sprintf("%.8g", t.Qty),
			fmt.Sprintf("%+.4f", t.PnL),
		)
	}
	table.Render()
}

func connLabel(s stream.Status) string {
	if s.State == stream.StateReconnecting {
		return fmt.Sprintf("reconnecting (attempt %d, next in %s)", s.Attempt, s.NextDelay)
	}
	return s.State.String()
}

func botLabel(b api.BotStatus) string {
	state := "stopped"
	if b.Running {
		state = "running"
	}
	if b.Symbol != "" {
		return fmt.Sprintf("%s %s eq=%.2f", state, b.Symbol, b.Equity)
	}
	return state
}

func msClock(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("15:04:05")
}
