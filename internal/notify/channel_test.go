package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"supplyChainTracking/models"
)

func TestDelay_SequenceAndCap(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for attempt, w := range want {
		if got := Delay(attempt); got != w {
			t.Fatalf("Delay(%d) = %v, want %v", attempt, got, w)
		}
	}
	// Large attempts must not overflow past the cap.
	if got := Delay(63); got != 30*time.Second {
		t.Fatalf("Delay(63) = %v, want 30s", got)
	}
}

// fakeConn is a scriptable Conn.
type fakeConn struct {
	mu      sync.Mutex
	frames  chan []byte
	written []interface{}
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	data, ok := <-f.frames
	if !ok {
		return 0, nil, errors.New("connection closed")
	}
	return 1, data, nil
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed conn")
	}
	f.written = append(f.written, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.frames)
	}
	return nil
}

func (f *fakeConn) push(t *testing.T, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	f.frames <- data
}

func TestRun_AuthFrameThenDispatch(t *testing.T) {
	conn := newFakeConn()
	dialed := make(chan struct{}, 1)
	dial := func(ctx context.Context, url string) (Conn, error) {
		dialed <- struct{}{}
		return conn, nil
	}

	notifCh := make(chan models.Notification, 1)
	countCh := make(chan int, 1)
	ch := New("ws://backend/ws/notifications", "tok-1", dial, Events{
		OnNotification: func(n models.Notification) { notifCh <- n },
		OnUnreadCount:  func(n int) { countCh <- n },
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { ch.Run(ctx); close(done) }()

	<-dialed
	// Auth frame goes out immediately on connect, before any server ack.
	waitFor(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.written) == 1
	})
	conn.mu.Lock()
	authFrame, ok := conn.written[0].(frame)
	conn.mu.Unlock()
	if !ok || authFrame.Type != FrameAuth || authFrame.Token != "tok-1" {
		t.Fatalf("first frame = %+v, want AUTH with bearer credential", conn.written[0])
	}
	if ch.State() != StateConnected {
		t.Fatalf("state = %v, want CONNECTED", ch.State())
	}

	seven := 7
	conn.push(t, frame{Type: FrameUnreadCount, Count: &seven})
	select {
	case n := <-countCh:
		if n != 7 {
			t.Fatalf("unread count = %d", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("UNREAD_COUNT not dispatched")
	}

	conn.push(t, frame{Type: FrameNewNotification, Notification: &models.Notification{
		ID: "n1", Type: "SEGMENT_ACCEPTED", Severity: models.SeveritySuccess,
	}})
	select {
	case n := <-notifCh:
		if n.ID != "n1" {
			t.Fatalf("notification = %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("NEW_NOTIFICATION not dispatched")
	}

	// Unknown frames are ignored without killing the loop.
	conn.push(t, frame{Type: "SOMETHING_NEW"})
	conn.frames <- []byte("not json")
	nine := 9
	conn.push(t, frame{Type: FrameUnreadCount, Count: &nine})
	select {
	case n := <-countCh:
		if n != 9 {
			t.Fatalf("unread count after junk frames = %d", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("channel died on unknown/malformed frame")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return on cancellation")
	}
	if ch.State() != StateDisconnected {
		t.Fatalf("state after teardown = %v", ch.State())
	}
}

func TestRun_ReconnectsAfterDialFailure(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	conn := newFakeConn()
	dial := func(ctx context.Context, url string) (Conn, error) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 3 {
			return nil, errors.New("refused")
		}
		return conn, nil
	}

	var states []State
	var smu sync.Mutex
	ch := New("ws://backend/ws", "tok", dial, Events{
		OnStateChange: func(s State) {
			smu.Lock()
			states = append(states, s)
			smu.Unlock()
		},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { ch.Run(ctx); close(done) }()

	// Two failures cost 1s + 2s of backoff before the third dial succeeds.
	waitUpTo(t, 8*time.Second, func() bool { return ch.State() == StateConnected })

	mu.Lock()
	if attempts != 3 {
		mu.Unlock()
		t.Fatalf("dial attempts = %d, want 3", attempts)
	}
	mu.Unlock()

	cancel()
	<-done

	smu.Lock()
	defer smu.Unlock()
	// Must have cycled CONNECTING -> DISCONNECTED per failure before
	// reaching CONNECTED.
	sawConnected := false
	for _, s := range states {
		if s == StateConnected {
			sawConnected = true
		}
	}
	if !sawConnected {
		t.Fatalf("state transitions never reached CONNECTED: %v", states)
	}
}

func TestToastDuration(t *testing.T) {
	cases := []struct {
		severity models.Severity
		want     time.Duration
	}{
		{models.SeverityCritical, 10 * time.Second},
		{models.SeverityError, 5 * time.Second},
		{models.SeverityWarning, 5 * time.Second},
		{models.SeveritySuccess, 5 * time.Second},
		{models.SeverityInfo, 5 * time.Second},
	}
	for _, c := range cases {
		if got := ToastDuration(c.severity); got != c.want {
			t.Fatalf("ToastDuration(%s) = %v, want %v", c.severity, got, c.want)
		}
	}
}

func TestToastFor(t *testing.T) {
	n := models.Notification{ID: "n1", Severity: models.SeverityCritical, Title: "Breach", Message: "cold chain"}
	toast := ToastFor(n)
	if toast.ID == "" {
		t.Fatalf("toast needs a stable id for list rendering")
	}
	if toast.Duration != ToastDurationCritical || toast.Severity != models.SeverityCritical {
		t.Fatalf("toast = %+v", toast)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	waitUpTo(t, 2*time.Second, cond)
}

func waitUpTo(t *testing.T, limit time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(limit)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %v", limit)
}
