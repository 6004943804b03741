// Package notify maintains the realtime notification channel: one
// persistent WebSocket to the backend's /ws/notifications endpoint, with
// authentication on connect and exponential-backoff reconnection. Connection
// failures are not surfaced as user errors; they drive the state machine,
// and the gateway exposes the current state as a "reconnecting" indicator.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"supplyChainTracking/models"
)

// State is the connection state of the channel.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
)

// Frame types on the wire.
const (
	FrameAuth            = "AUTH"
	FrameNewNotification = "NEW_NOTIFICATION"
	FrameUnreadCount     = "UNREAD_COUNT"
)

const (
	baseDelay = time.Second
	maxDelay  = 30 * time.Second
)

// Delay returns the reconnect backoff for the given consecutive-failure
// attempt: min(1s * 2^attempt, 30s).
func Delay(attempt int) time.Duration {
	d := baseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// frame is a JSON text frame tagged by type.
type frame struct {
	Type         string               `json:"type"`
	Token        string               `json:"token,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	Count        *int                 `json:"count,omitempty"`
}

// Conn is the subset of the websocket connection the channel needs.
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Dialer opens a connection to the notification endpoint.
type Dialer func(ctx context.Context, url string) (Conn, error)

// DefaultDialer dials with gorilla's default websocket dialer.
func DefaultDialer(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Events are the channel's delivery callbacks. Either may be nil.
type Events struct {
	// OnNotification fires for each NEW_NOTIFICATION frame.
	OnNotification func(models.Notification)
	// OnUnreadCount fires for each UNREAD_COUNT frame; the value overwrites
	// the cached counter without a refetch.
	OnUnreadCount func(int)
	// OnStateChange fires on every connection state transition.
	OnStateChange func(State)
}

// Channel is the reconnecting notification stream client.
type Channel struct {
	url    string
	token  string
	dial   Dialer
	events Events
	logger *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a channel for the given WebSocket URL and bearer credential.
// A nil dialer uses DefaultDialer.
func New(url, token string, dial Dialer, events Events, logger *zap.Logger) *Channel {
	if dial == nil {
		dial = DefaultDialer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		url:    url,
		token:  token,
		dial:   dial,
		events: events,
		logger: logger,
		state:  StateDisconnected,
	}
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()
	if changed && c.events.OnStateChange != nil {
		c.events.OnStateChange(s)
	}
}

// Run drives the connect/read/reconnect loop until ctx is cancelled. On
// cancellation any pending reconnect timer is stopped and the socket closed;
// nothing outlives the call.
func (c *Channel) Run(ctx context.Context) {
	attempt := 0
	for {
		if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		}
		c.setState(StateConnecting)
		conn, err := c.dial(ctx, c.url)
		if err != nil {
			c.setState(StateDisconnected)
			attempt++
			d := Delay(attempt - 1)
			c.logger.Debug("notification channel dial failed",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("retryIn", d))
			if !sleep(ctx, d) {
				return
			}
			continue
		}

		// Connected. Reset backoff and authenticate; the receive path is
		// armed immediately, no ack is awaited.
		attempt = 0
		c.setState(StateConnected)
		if err := conn.WriteJSON(frame{Type: FrameAuth, Token: c.token}); err != nil {
			c.logger.Debug("auth frame write failed", zap.Error(err))
			_ = conn.Close()
			c.setState(StateDisconnected)
			attempt++
			if !sleep(ctx, Delay(attempt-1)) {
				return
			}
			continue
		}

		c.readLoop(ctx, conn)
		_ = conn.Close()
		c.setState(StateDisconnected)
		// Any close, auth rejection included, looks like a network failure
		// from here; fall through to the backoff path.
		attempt++
		if !sleep(ctx, Delay(attempt-1)) {
			return
		}
	}
}

// readLoop consumes frames until the connection breaks or ctx is cancelled.
func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			c.dispatch(data)
		}
	}()
	select {
	case <-ctx.Done():
		_ = conn.Close() // unblocks the reader
		<-readErr
	case err := <-readErr:
		c.logger.Debug("notification channel closed", zap.Error(err))
	}
}

func (c *Channel) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Debug("skipping malformed frame", zap.Error(err))
		return
	}
	switch f.Type {
	case FrameNewNotification:
		if f.Notification != nil && c.events.OnNotification != nil {
			c.events.OnNotification(*f.Notification)
		}
	case FrameUnreadCount:
		if f.Count != nil && c.events.OnUnreadCount != nil {
			c.events.OnUnreadCount(*f.Count)
		}
	default:
		// Unknown frame types are ignored; the type set grows server-side.
	}
}

// sleep waits for d or ctx cancellation; reports whether the full wait
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
