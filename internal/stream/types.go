package stream

import (
	"errors"
	"time"

	"github.com/amadeus-trading/console/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// TimestampedMessage wraps raw frame bytes with a receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes from the WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// Frame is one decoded feed event as delivered to subscribers.
type Frame struct {
	Event      model.RawEvent
	ReceivedAt time.Time
}

// State is the connection lifecycle state tag.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosing
)

// String returns the state name for status indicators and logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of the connection state machine.
// Attempt and NextDelay are only meaningful while reconnecting.
type Status struct {
	State     State
	Attempt   int
	NextDelay time.Duration
}

// ManagerStats counts frame traffic through the manager.
type ManagerStats struct {
	FramesReceived  int64 // frames read off the transport
	FramesPublished int64 // frames decoded and fanned out
	DecodeFailures  int64 // malformed frames dropped
	Subscribers     int
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL               string        // feed URL (e.g. ws://127.0.0.1:8100/ws)
	Token             string        // appended as ?token=... when non-empty
	HandshakeTimeout  time.Duration
	PingTimeout       time.Duration // max time without ping/pong before the connection is stale
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration
	BufferSize        int // message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout:  10 * time.Second,
		PingTimeout:       60 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        1000,
	}
}

// ManagerConfig configures the connection Manager.
type ManagerConfig struct {
	URL   string
	Token string

	// Backoff tuning. Growth and cap are configuration so operators can
	// tune recovery aggressiveness against a degraded backend.
	ReconnectBaseDelay time.Duration
	ReconnectMaxDelay  time.Duration
	ReconnectGrowth    float64

	HandshakeTimeout  time.Duration
	PingTimeout       time.Duration
	HeartbeatInterval time.Duration
	WriteTimeout      time.Duration

	// SubscriberQueueSize bounds each subscriber's delivery queue. On
	// overflow the subscriber's own oldest entries are dropped; other
	// subscribers and the read loop are unaffected.
	SubscriberQueueSize int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectBaseDelay:  time.Second,
		ReconnectMaxDelay:   60 * time.Second,
		ReconnectGrowth:     2.0,
		HandshakeTimeout:    10 * time.Second,
		PingTimeout:         60 * time.Second,
		HeartbeatInterval:   30 * time.Second,
		WriteTimeout:        5 * time.Second,
		SubscriberQueueSize: 256,
	}
}
