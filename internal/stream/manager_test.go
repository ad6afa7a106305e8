package stream

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amadeus-trading/console/internal/model"
)

// connectReq is one Connect call on a fakeClient; the test decides the
// outcome by sending on reply.
type connectReq struct {
	cli   *fakeClient
	reply chan error
}

// fakeClient lets tests drive the manager's connection loop without a
// network.
type fakeClient struct {
	connects  chan *connectReq
	msgs      chan TimestampedMessage
	errs      chan error
	connected atomic.Bool
}

func newFakeClient(connects chan *connectReq) *fakeClient {
	return &fakeClient{
		connects: connects,
		msgs:     make(chan TimestampedMessage, 16),
		errs:     make(chan error, 1),
	}
}

func (f *fakeClient) Connect(ctx context.Context) error {
	req := &connectReq{cli: f, reply: make(chan error)}
	select {
	case f.connects <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		if err == nil {
			f.connected.Store(true)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeClient) Close() error {
	f.connected.Store(false)
	return nil
}

func (f *fakeClient) Send(data []byte) error {
	if !f.connected.Load() {
		return ErrNotConnected
	}
	return nil
}

func (f *fakeClient) Messages() <-chan TimestampedMessage { return f.msgs }
func (f *fakeClient) Errors() <-chan error                { return f.errs }
func (f *fakeClient) IsConnected() bool                   { return f.connected.Load() }

// fakeManager builds a manager whose transport is driven through the
// returned connects channel.
func fakeManager(cfg ManagerConfig) (*Manager, chan *connectReq) {
	m := NewManager(cfg, nil)
	connects := make(chan *connectReq, 1)
	m.newClient = func() Client {
		return newFakeClient(connects)
	}
	return m, connects
}

func waitForStatus(t *testing.T, m *Manager, want func(Status) bool) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := m.Status()
		if want(st) {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for status, last = %+v", m.Status())
	return Status{}
}

func TestNextDelay(t *testing.T) {
	tests := []struct {
		name   string
		d      time.Duration
		growth float64
		cap    time.Duration
		want   time.Duration
	}{
		{"doubles", time.Second, 2.0, time.Minute, 2 * time.Second},
		{"fractional growth", time.Second, 1.5, time.Minute, 1500 * time.Millisecond},
		{"capped", 40 * time.Second, 2.0, time.Minute, time.Minute},
		{"at cap stays", time.Minute, 2.0, time.Minute, time.Minute},
		{"growth below one defaults", time.Second, 0.5, time.Minute, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextDelay(tt.d, tt.growth, tt.cap); got != tt.want {
				t.Errorf("nextDelay(%v, %v, %v) = %v, want %v", tt.d, tt.growth, tt.cap, got, tt.want)
			}
		})
	}
}

func TestManager_BackoffProgressionAndReset(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.ReconnectBaseDelay = time.Millisecond
	cfg.ReconnectMaxDelay = 4 * time.Millisecond
	cfg.ReconnectGrowth = 2.0

	m, connects := fakeManager(cfg)
	m.Connect()
	defer m.Close()

	// Fail three dials in a row; the advertised delay must follow the
	// base/growth/cap schedule and never decrease.
	wantDelays := []time.Duration{
		time.Millisecond,     // after attempt 1
		2 * time.Millisecond, // after attempt 2
		4 * time.Millisecond, // capped
	}
	for i, want := range wantDelays {
		req := <-connects
		req.reply <- ErrStaleConnection

		st := waitForStatus(t, m, func(s Status) bool {
			return s.State == StateReconnecting && s.Attempt == i+1
		})
		if st.NextDelay != want {
			t.Errorf("attempt %d: NextDelay = %v, want %v", i+1, st.NextDelay, want)
		}
	}

	// Let the fourth dial succeed.
	req := <-connects
	req.reply <- nil
	waitForStatus(t, m, func(s Status) bool { return s.State == StateOpen })

	// Drop the connection; attempt count and delay must restart from the
	// beginning, not resume the old schedule.
	req.cli.errs <- ErrStaleConnection

	st := waitForStatus(t, m, func(s Status) bool { return s.State == StateReconnecting })
	if st.Attempt != 1 {
		t.Errorf("attempt after recovery = %d, want 1", st.Attempt)
	}
	if st.NextDelay != cfg.ReconnectBaseDelay {
		t.Errorf("delay after recovery = %v, want %v", st.NextDelay, cfg.ReconnectBaseDelay)
	}
}

func TestManager_CloseDuringBackoff(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.ReconnectBaseDelay = time.Hour // would hang forever if not cancelled
	cfg.ReconnectMaxDelay = time.Hour

	m, connects := fakeManager(cfg)
	m.Connect()

	req := <-connects
	req.reply <- ErrStaleConnection

	waitForStatus(t, m, func(s Status) bool { return s.State == StateReconnecting })

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not cancel the pending backoff wait")
	}

	if st := m.Status(); st.State != StateClosing {
		t.Errorf("state after Close = %v, want closing", st.State)
	}

	// No further dial attempts after Close.
	select {
	case <-connects:
		t.Error("unexpected dial attempt after Close")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_ConnectIdempotent(t *testing.T) {
	m, connects := fakeManager(DefaultManagerConfig())

	m.Connect()
	m.Connect()
	m.Connect()

	// Exactly one dial in flight.
	<-connects
	select {
	case <-connects:
		t.Error("second Connect started another dial")
	case <-time.After(50 * time.Millisecond):
	}

	m.Close()

	// Connect after Close is a no-op: Closing is terminal.
	m.Connect()
	select {
	case <-connects:
		t.Error("Connect after Close started a dial")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_SendNotConnected(t *testing.T) {
	m, _ := fakeManager(DefaultManagerConfig())

	if err := m.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("Send while idle = %v, want ErrNotConnected", err)
	}
}

func testFrame(id string) Frame {
	evt, ok := model.DecodeEvent([]byte(`{"type":"trade","id":"` + id + `"}`))
	if !ok {
		panic("test frame did not decode")
	}
	return Frame{Event: evt, ReceivedAt: time.Now()}
}

func TestManager_PublishDropOldest(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.SubscriberQueueSize = 2

	m := NewManager(cfg, nil)
	sub := m.Subscribe()
	defer sub.Close()

	for _, id := range []string{"1", "2", "3", "4", "5"} {
		m.publish(testFrame(id))
	}

	// Queue holds two entries; the three oldest were discarded.
	for _, want := range []string{"4", "5"} {
		select {
		case f := <-sub.C():
			if got := f.Event.Str("id"); got != want {
				t.Errorf("frame id = %q, want %q", got, want)
			}
		default:
			t.Fatalf("queue empty, want frame %q", want)
		}
	}

	if got := sub.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestManager_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	cfg := DefaultManagerConfig()
	cfg.SubscriberQueueSize = 1

	m := NewManager(cfg, nil)
	slow := m.Subscribe()
	fast := m.Subscribe()
	defer slow.Close()
	defer fast.Close()

	done := make(chan struct{})
	go func() {
		for _, id := range []string{"1", "2", "3"} {
			m.publish(testFrame(id))
			// Drain the healthy subscriber; the stalled one is never read.
			<-fast.C()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
}

func TestManager_ReplayLastFrame(t *testing.T) {
	m := NewManager(DefaultManagerConfig(), nil)

	// Before any traffic, a new subscriber gets nothing.
	early := m.Subscribe()
	select {
	case f := <-early.C():
		t.Fatalf("unexpected frame before any publish: %+v", f)
	default:
	}
	early.Close()

	m.publish(testFrame("a"))
	m.publish(testFrame("b"))

	// A late joiner is handed the most recent frame, and only that one.
	late := m.Subscribe()
	defer late.Close()

	select {
	case f := <-late.C():
		if got := f.Event.Str("id"); got != "b" {
			t.Errorf("replayed frame id = %q, want %q", got, "b")
		}
	default:
		t.Fatal("late subscriber got no replay frame")
	}

	select {
	case f := <-late.C():
		t.Fatalf("unexpected second replay frame: %+v", f)
	default:
	}
}

func TestManager_SubscriptionClose(t *testing.T) {
	m := NewManager(DefaultManagerConfig(), nil)

	a := m.Subscribe()
	b := m.Subscribe()

	if got := m.Stats().Subscribers; got != 2 {
		t.Fatalf("Subscribers = %d, want 2", got)
	}

	a.Close()
	a.Close() // idempotent

	if got := m.Stats().Subscribers; got != 1 {
		t.Errorf("Subscribers after Close = %d, want 1", got)
	}

	b.Close()
}

func TestManager_EndToEnd(t *testing.T) {
	frames := []string{
		`{"type":"order_event","id":"o-1","status":"NEW"}`,
		`this is not json`,
		`{"type":"trade","id":"t-1","price":0.42}`,
	}

	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	cfg := DefaultManagerConfig()
	cfg.URL = wsURL(server)

	m := NewManager(cfg, nil)
	sub := m.Subscribe()
	defer sub.Close()

	m.Connect()
	defer m.Close()

	waitForStatus(t, m, func(s Status) bool { return s.State == StateOpen })

	// The malformed frame vanishes without disturbing the stream.
	wantIDs := []string{"o-1", "t-1"}
	for i, want := range wantIDs {
		select {
		case f := <-sub.C():
			if got := f.Event.Str("id"); got != want {
				t.Errorf("frame %d id = %q, want %q", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}

	stats := m.Stats()
	if stats.FramesReceived != 3 {
		t.Errorf("FramesReceived = %d, want 3", stats.FramesReceived)
	}
	if stats.FramesPublished != 2 {
		t.Errorf("FramesPublished = %d, want 2", stats.FramesPublished)
	}
	if stats.DecodeFailures != 1 {
		t.Errorf("DecodeFailures = %d, want 1", stats.DecodeFailures)
	}

	if st := m.Status(); st.State != StateOpen {
		t.Errorf("state after malformed frame = %v, want open", st.State)
	}
}
