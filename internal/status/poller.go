package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/amadeus-trading/console/internal/api"
)

// StatusSource fetches the bot's status. Satisfied by *api.Client.
type StatusSource interface {
	GetStatus(ctx context.Context) (api.BotStatus, error)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // poll interval
	Timeout  time.Duration // per-request timeout
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Second,
		Timeout:  3 * time.Second,
	}
}

// Poller periodically fetches bot status and caches the last good value.
type Poller struct {
	cfg    Config
	source StatusSource
	logger *slog.Logger

	mu        sync.RWMutex
	last      api.BotStatus
	fetchedAt time.Time
	hasValue  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, source StatusSource, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:    cfg,
		source: source,
		logger: logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("status poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("status poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Last returns the most recently fetched status, when it was fetched, and
// whether a value has been fetched at all. A poll failure leaves the
// cached value in place.
func (p *Poller) Last() (api.BotStatus, time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.fetchedAt, p.hasValue
}

// Observe injects a status observed outside the polling loop, e.g. one
// pushed over the live feed. It updates the cache the same way a successful
// poll does.
func (p *Poller) Observe(status api.BotStatus) {
	p.mu.Lock()
	p.last = status
	p.fetchedAt = time.Now()
	p.hasValue = true
	p.mu.Unlock()
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches status once and updates the cache on success.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	status, err := p.source.GetStatus(ctx)
	if err != nil {
		p.logger.Warn("status poll failed", "error", err)
		return
	}

	p.mu.Lock()
	p.last = status
	p.fetchedAt = time.Now()
	p.hasValue = true
	p.mu.Unlock()
}
