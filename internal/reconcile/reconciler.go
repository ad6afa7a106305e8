package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amadeus-trading/console/internal/model"
	"github.com/amadeus-trading/console/internal/stream"
)

// Config holds reconciler configuration.
type Config struct {
	// TradeBufferCap bounds the trade history buffer.
	TradeBufferCap int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TradeBufferCap: 100,
	}
}

// Snapshot is a read-only, internally consistent copy of the derived views,
// safe to hand to a consumer without further synchronization.
type Snapshot struct {
	OpenOrders []model.OrderRecord // descending timestamp
	Trades     []model.TradeRecord // most-recent-first
}

// subscriber receives coalesced change signals on ch until done is closed.
type subscriber struct {
	ch   chan struct{}
	done chan struct{}
}

// Reconciler folds feed events into the open-orders and trade views.
// Folds are serialized; consumers only ever see state between folds.
type Reconciler struct {
	cfg    Config
	logger *slog.Logger
	src    <-chan stream.Frame

	mu     sync.Mutex
	open   map[string]model.OrderRecord
	trades *tradeRing

	subMu   sync.Mutex
	subs    map[int]*subscriber
	nextSub int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New creates a Reconciler reading from src.
func New(cfg Config, src <-chan stream.Frame, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TradeBufferCap < 1 {
		cfg.TradeBufferCap = DefaultConfig().TradeBufferCap
	}

	return &Reconciler{
		cfg:    cfg,
		logger: logger,
		src:    src,
		open:   make(map[string]model.OrderRecord),
		trades: newTradeRing(cfg.TradeBufferCap),
		subs:   make(map[int]*subscriber),
		now:    time.Now,
	}
}

// Start begins draining the source channel.
func (r *Reconciler) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.runLoop()

	r.logger.Info("reconciler started", "trade_buffer_cap", r.cfg.TradeBufferCap)
	return nil
}

// Stop shuts down the fold loop.
func (r *Reconciler) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("reconciler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers onChange to run after folds mutate the views. The
// signal is coalesced: a slow consumer sees at least one notification for
// any burst of changes and pulls Snapshot on its own cadence. The returned
// function unregisters the consumer.
func (r *Reconciler) Subscribe(onChange func()) func() {
	s := &subscriber{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = s
	r.subMu.Unlock()

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-s.ch:
				onChange()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
			close(s.done)
		})
	}
}

// Snapshot returns a copy of both views at one instant. Open orders are
// ordered by descending timestamp; trades are already most-recent-first.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	orders := make([]model.OrderRecord, 0, len(r.open))
	for _, rec := range r.open {
		orders = append(orders, rec)
	}
	trades := r.trades.Newest()
	r.mu.Unlock()

	sort.Slice(orders, func(i, j int) bool {
		if orders[i].TS != orders[j].TS {
			return orders[i].TS > orders[j].TS
		}
		return orders[i].ID < orders[j].ID
	})

	return Snapshot{OpenOrders: orders, Trades: trades}
}

// Apply folds a single frame into the views. Events of unrecognized kinds
// are ignored; other consumers of the broadcast may still care about them.
func (r *Reconciler) Apply(f stream.Frame) {
	switch f.Event.Kind {
	case model.KindOrderEvent:
		if r.foldOrder(f) {
			r.notify()
		}
	case model.KindTrade:
		r.foldTrade(f)
		r.notify()
	}
}

func (r *Reconciler) runLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case f, ok := <-r.src:
			if !ok {
				return
			}
			r.Apply(f)
		}
	}
}

// foldOrder applies an order lifecycle event. A NEW status inserts or
// overwrites the entry; any other status overwrites an existing entry and,
// when terminal, removes it after the overwrite.
func (r *Reconciler) foldOrder(f stream.Frame) bool {
	evt := f.Event

	id := evt.Str("id", "order_id", "orderId")
	if id == "" {
		// Unkeyable frame; routine input noise, not an error.
		return false
	}

	rec := model.OrderRecord{
		ID:     id,
		Side:   evt.Side(),
		Price:  evt.Num("price", "p", "avg"),
		Qty:    evt.Num("qty", "quantity", "q"),
		Status: evt.Status(),
		TS:     evt.Timestamp(r.ingestMS(f)),
	}

	r.mu.Lock()
	if rec.Status == model.StatusNew {
		r.open[id] = rec
	} else {
		if _, ok := r.open[id]; ok {
			r.open[id] = rec
		}
		if model.IsTerminal(rec.Status) {
			delete(r.open, id)
		}
	}
	r.mu.Unlock()

	return true
}

// foldTrade appends a trade record. Trades without a producer id get a
// synthetic one; duplicate delivery then yields distinct records, which is
// acceptable for a history view.
func (r *Reconciler) foldTrade(f stream.Frame) {
	evt := f.Event

	id := evt.Str("id", "trade_id")
	if id == "" {
		id = uuid.NewString()
	}

	tr := model.TradeRecord{
		ID:    id,
		Side:  evt.Side(),
		Price: evt.Num("price", "p", "avg"),
		Qty:   evt.Num("qty", "quantity", "q"),
		PnL:   evt.Num("pnl", "realized_pnl"),
		TS:    evt.Timestamp(r.ingestMS(f)),
	}

	r.mu.Lock()
	r.trades.Push(tr)
	r.mu.Unlock()
}

// notify emits a coalesced views-changed signal to every subscriber. The
// signal carries no payload; consumers pull Snapshot when they render.
func (r *Reconciler) notify() {
	r.subMu.Lock()
	for _, s := range r.subs {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
	r.subMu.Unlock()
}

// ingestMS is the fallback event time for frames without a timestamp.
func (r *Reconciler) ingestMS(f stream.Frame) int64 {
	if !f.ReceivedAt.IsZero() {
		return f.ReceivedAt.UnixMilli()
	}
	return r.now().UnixMilli()
}
