package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/amadeus-trading/console/internal/model"
)

// Manager owns the feed connection and its lifecycle. It decodes incoming
// frames and fans them out to subscribers; transport failures drive the
// reconnection state machine and are never surfaced as errors to callers.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	// newClient builds the transport; replaced in tests.
	newClient func() Client

	mu     sync.Mutex
	status Status
	client Client
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]*Subscription
	nextSub int
	last    Frame
	hasLast bool

	framesReceived  atomic.Int64
	framesPublished atomic.Int64
	decodeFailures  atomic.Int64
}

// Subscription is one subscriber's view of the broadcast. Frames arrive on
// C() in transport order; when the bounded queue overflows, the oldest
// entries are discarded for this subscriber only.
type Subscription struct {
	id      int
	m       *Manager
	ch      chan Frame
	dropped atomic.Int64
	once    sync.Once
}

// C returns the subscriber's frame channel.
func (s *Subscription) C() <-chan Frame {
	return s.ch
}

// Dropped returns how many frames this subscriber has lost to overflow.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unregisters the subscriber. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.m.subMu.Lock()
		delete(s.m.subs, s.id)
		s.m.subMu.Unlock()
	})
}

// NewManager creates a connection Manager. The connection is not opened
// until Connect is called.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SubscriberQueueSize < 1 {
		cfg.SubscriberQueueSize = 1
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultManagerConfig().HandshakeTimeout
	}

	m := &Manager{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[int]*Subscription),
	}
	m.newClient = func() Client {
		return NewClient(ClientConfig{
			URL:               cfg.URL,
			Token:             cfg.Token,
			HandshakeTimeout:  cfg.HandshakeTimeout,
			PingTimeout:       cfg.PingTimeout,
			HeartbeatInterval: cfg.HeartbeatInterval,
			WriteTimeout:      cfg.WriteTimeout,
			BufferSize:        DefaultClientConfig().BufferSize,
		}, logger)
	}
	return m
}

// Connect starts the connection loop. Idempotent: calling it while already
// connecting, connected, or closed is a no-op. Success and failure are
// observed via Status and the broadcast, not via a return value.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status.State != StateIdle {
		return
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.status = Status{State: StateConnecting}

	m.wg.Add(1)
	go m.run()
}

// Close transitions to Closing, terminates the transport, and suppresses
// further reconnection, including any pending backoff wait. Closing is
// terminal. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.status.State == StateClosing {
		m.mu.Unlock()
		return nil
	}
	m.status = Status{State: StateClosing}
	cancel := m.cancel
	cli := m.client
	m.client = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if cli != nil {
		cli.Close()
	}
	m.wg.Wait()

	m.logger.Info("feed connection closed")
	return nil
}

// Send writes a payload to the feed, best-effort. If no connection is open
// the payload is dropped and ErrNotConnected reported; the caller decides
// whether to retry.
func (m *Manager) Send(data []byte) error {
	m.mu.Lock()
	cli := m.client
	open := m.status.State == StateOpen
	m.mu.Unlock()

	if !open || cli == nil {
		return ErrNotConnected
	}
	return cli.Send(data)
}

// Subscribe registers a new broadcast subscriber. A subscriber that joins
// mid-stream is handed the most recent frame immediately so it can render
// something; nothing older is replayed.
func (m *Manager) Subscribe() *Subscription {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	s := &Subscription{
		id: m.nextSub,
		m:  m,
		ch: make(chan Frame, m.cfg.SubscriberQueueSize),
	}
	m.nextSub++
	if m.hasLast {
		s.ch <- m.last
	}
	m.subs[s.id] = s
	return s
}

// Status returns the current connection state for live/reconnecting
// indicators.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Stats returns frame traffic counters.
func (m *Manager) Stats() ManagerStats {
	m.subMu.Lock()
	subs := len(m.subs)
	m.subMu.Unlock()

	return ManagerStats{
		FramesReceived:  m.framesReceived.Load(),
		FramesPublished: m.framesPublished.Load(),
		DecodeFailures:  m.decodeFailures.Load(),
		Subscribers:     subs,
	}
}

// run is the connection loop: dial, pump until failure, back off, repeat.
// It exits only when the manager is closed.
func (m *Manager) run() {
	defer m.wg.Done()

	attempt := 0
	delay := m.cfg.ReconnectBaseDelay

	for {
		cli := m.newClient()
		err := cli.Connect(m.ctx)
		if err == nil {
			m.setOpen(cli)
			attempt = 0
			delay = m.cfg.ReconnectBaseDelay

			m.pump(cli)
			cli.Close()
			m.clearClient()
		} else {
			m.logger.Warn("connect failed", "url", m.cfg.URL, "error", err)
		}

		select {
		case <-m.ctx.Done():
			return
		default:
		}

		attempt++
		m.setReconnecting(attempt, delay)
		m.logger.Info("reconnecting", "attempt", attempt, "delay", delay)

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		delay = nextDelay(delay, m.cfg.ReconnectGrowth, m.cfg.ReconnectMaxDelay)
	}
}

// pump forwards decoded frames from one connection to the broadcast until
// the transport fails or the manager shuts down.
func (m *Manager) pump(cli Client) {
	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-cli.Errors():
			m.logger.Warn("transport error", "error", err)
			return

		case msg, ok := <-cli.Messages():
			if !ok {
				return
			}
			m.framesReceived.Add(1)

			evt, decoded := model.DecodeEvent(msg.Data)
			if !decoded {
				// A corrupt frame is never a connection failure.
				m.decodeFailures.Add(1)
				m.logger.Debug("dropping undecodable frame", "bytes", len(msg.Data))
				continue
			}

			m.publish(Frame{Event: evt, ReceivedAt: msg.ReceivedAt})
		}
	}
}

// publish fans a frame out to all subscribers without back-pressure
// coupling: a full subscriber queue loses its own oldest entry.
func (m *Manager) publish(f Frame) {
	m.subMu.Lock()
	m.last = f
	m.hasLast = true

	for _, s := range m.subs {
		select {
		case s.ch <- f:
		default:
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- f:
			default:
			}
			s.dropped.Add(1)
		}
	}
	m.subMu.Unlock()

	m.framesPublished.Add(1)
}

func (m *Manager) setOpen(cli Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.State == StateClosing {
		return
	}
	m.client = cli
	m.status = Status{State: StateOpen}
	m.logger.Info("feed connected", "url", m.cfg.URL)
}

func (m *Manager) setReconnecting(attempt int, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.State == StateClosing {
		return
	}
	m.status = Status{State: StateReconnecting, Attempt: attempt, NextDelay: delay}
}

func (m *Manager) clearClient() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.client = nil
}

// nextDelay grows the backoff delay by the configured factor, capped.
func nextDelay(d time.Duration, growth float64, cap time.Duration) time.Duration {
	if growth <= 1 {
		growth = 2
	}
	next := time.Duration(float64(d) * growth)
	if next > cap {
		next = cap
	}
	return next
}
