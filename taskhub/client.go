// Package taskhub implements the realtime messaging and notification client
// for the TaskHub marketplace: one persistent WebSocket authenticated by user
// id and bearer token, JSON frames demultiplexed by type, heartbeat with
// presence capability negotiation, and bounded exponential reconnection.
package taskhub

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/sync/singleflight"

	"github.com/taskhub/taskhub-sdk-go/taskhub/internal"
)

// Client owns a single persistent socket. The same instance survives
// reconnects; only the socket handle underneath it changes. Construct one per
// socket kind (chat, order notifications) and keep it for the session.
type Client struct {
	logger     Logger
	metrics    Metrics
	dispatcher *Dispatcher

	// connectSF collapses concurrent Connect calls onto one dial.
	connectSF singleflight.Group

	mu             sync.Mutex
	cfg            Config
	conn           *internal.Conn
	writeCh        chan outFrame
	state          ConnectionState
	intentional    bool
	presence       PresenceSupport
	probeSent      bool
	policy         *reconnectPolicy
	reconnectTimer *time.Timer
	failedEmitted  bool
	cancel         context.CancelFunc
}

// NewClient constructs a client with the provided config. A nil config uses
// DefaultConfig. Use DefaultConfig() as a starting point and modify as needed.
func NewClient(cfg *Config) *Client {
	c := &Client{
		logger:     noopLogger{},
		metrics:    nopMetrics{},
		dispatcher: NewDispatcher(),
	}
	if cfg != nil {
		c.cfg = *cfg
	} else {
		c.cfg = DefaultConfig()
	}
	c.policy = newReconnectPolicy(&c.cfg)
	return c
}

// SetLogger overrides the logger (optional).
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
	c.dispatcher.SetLogger(l)
}

// SetMetrics overrides the metrics sink (optional).
func (c *Client) SetMetrics(m Metrics) {
	if m == nil {
		return
	}
	c.mu.Lock()
	c.metrics = m
	c.mu.Unlock()
}

// SetCredentials updates the identity used on the next dial.
func (c *Client) SetCredentials(userID, token string) {
	c.mu.Lock()
	c.cfg.UserID = userID
	c.cfg.Token = token
	c.mu.Unlock()
}

// On registers a raw listener and returns its unsubscribe closure. The typed
// On* helpers below are the usual entry points.
func (c *Client) On(event string, fn func(any)) func() {
	return c.dispatcher.On(event, fn)
}

// OnMessage registers a callback for chat messages.
func (c *Client) OnMessage(fn func(Message)) func() {
	return c.dispatcher.On(EventMessage, func(p any) {
		if m, ok := p.(Message); ok {
			fn(m)
		}
	})
}

// OnNotification registers a callback for server notifications.
func (c *Client) OnNotification(fn func(Notification)) func() {
	return c.dispatcher.On(EventNotification, func(p any) {
		if n, ok := p.(Notification); ok {
			fn(n)
		}
	})
}

// OnStatus registers a callback for presence updates.
func (c *Client) OnStatus(fn func(StatusUpdate)) func() {
	return c.dispatcher.On(EventStatus, func(p any) {
		if s, ok := p.(StatusUpdate); ok {
			fn(s)
		}
	})
}

// OnError registers a callback for protocol and transport errors.
func (c *Client) OnError(fn func(error)) func() {
	return c.dispatcher.On(EventError, func(p any) {
		if err, ok := p.(error); ok && err != nil {
			fn(err)
		}
	})
}

// OnConnected registers a callback fired on every successful open.
func (c *Client) OnConnected(fn func()) func() {
	return c.dispatcher.On(EventConnected, func(any) { fn() })
}

// OnDisconnected registers a callback fired on every close; err is nil for
// intentional disconnects.
func (c *Client) OnDisconnected(fn func(err error)) func() {
	return c.dispatcher.On(EventDisconnected, func(p any) {
		err, _ := p.(error)
		fn(err)
	})
}

// OnStateChanged registers a callback for connection state transitions.
func (c *Client) OnStateChanged(fn func(StateEvent)) func() {
	return c.dispatcher.On(EventStateChanged, func(p any) {
		if ev, ok := p.(StateEvent); ok {
			fn(ev)
		}
	})
}

// OnReconnectFailed registers a callback fired once the retry budget is spent.
func (c *Client) OnReconnectFailed(fn func()) func() {
	return c.dispatcher.On(EventReconnectFailed, func(any) { fn() })
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the socket is open.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Presence returns the negotiated status-frame capability for the current
// connection.
func (c *Client) Presence() PresenceSupport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presence
}

// Connect dials the server and starts the internal loops. It is idempotent:
// while a dial is in flight every caller shares its outcome, and a connected
// client returns immediately. An explicit Connect clears the intentional-close
// flag and restores the full retry budget.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	c.intentional = false
	c.policy.reset()
	c.failedEmitted = false
	c.mu.Unlock()

	return c.connect(ctx)
}

func (c *Client) connect(ctx context.Context) error {
	_, err, _ := c.connectSF.Do("connect", func() (any, error) {
		return nil, c.dial(ctx)
	})
	return err
}

// Disconnect closes the socket with a normal-closure status and suppresses
// the reconnection policy until the next explicit Connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.intentional = true
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.mu.Unlock()

	c.handleClose(nil)
	return nil
}

// Close is an alias for Disconnect.
func (c *Client) Close() error { return c.Disconnect() }

// Send serializes one frame and hands it to the write loop. It refuses with
// ErrNotConnected while the socket is not open; frames are never queued across
// connections.
func (c *Client) Send(ctx context.Context, frameType string, payload any) error {
	c.mu.Lock()
	connected := c.state == StateConnected
	ch := c.writeCh
	c.mu.Unlock()
	if !connected || ch == nil {
		return ErrNotConnected
	}

	f := outFrame{
		Type:      frameType,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendMessage publishes a chat message over the socket.
func (c *Client) SendMessage(ctx context.Context, msg ChatPayload) error {
	if msg.Type == "" {
		msg.Type = MessageText
	}
	return c.Send(ctx, FrameMessage, msg)
}

// SendStatus reports this user's presence. It refuses once capability
// negotiation has established that the server rejects status frames.
func (c *Client) SendStatus(ctx context.Context, status PresenceStatus) error {
	c.mu.Lock()
	if c.presence == PresenceUnsupported {
		c.mu.Unlock()
		return ErrPresenceUnsupported
	}
	userID := c.cfg.UserID
	c.mu.Unlock()
	return c.Send(ctx, FrameStatus, StatusPayload{UserID: userID, Status: status})
}

func (c *Client) dial(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	cfg := c.cfg
	logger := c.logger
	c.mu.Unlock()

	if cfg.URL == "" || cfg.UserID == "" {
		return NewError(ErrorInvalidConfig, "url and user id are required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return WrapError(ErrorInvalidConfig, "invalid url", err)
	}
	q := u.Query()
	q.Set("userId", cfg.UserID)
	q.Set("token", cfg.Token)
	u.RawQuery = q.Encode()

	c.transition(StateConnecting, nil)

	dialCtx := ctx
	if cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		c.transition(StateDisconnected, err)
		if dialCtx.Err() != nil && ctx.Err() == nil {
			return WrapError(ErrorTimeout, "handshake timed out", err)
		}
		return WrapError(ErrorConnection, "dial failed", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	conn := internal.NewConn(ws, cfg.ReadTimeout, cfg.WriteTimeout)
	writeCh := make(chan outFrame, 16)

	c.mu.Lock()
	c.conn = conn
	c.writeCh = writeCh
	c.cancel = cancel
	c.presence = PresenceUnknown // capability is renegotiated per connection
	c.probeSent = false
	c.policy.reset()
	c.failedEmitted = false
	c.mu.Unlock()

	c.transition(StateConnected, nil)
	c.dispatcher.Emit(EventConnected, nil)
	logger.Info("connected", map[string]any{"url": cfg.URL})

	go c.readLoop(runCtx, conn)
	go c.writeLoop(runCtx, conn, writeCh)
	go c.heartbeatLoop(runCtx)
	return nil
}

// transition moves to st and emits a state event. Returns false when the
// client was already in st, which doubles as the emit-once guard during
// teardown races.
func (c *Client) transition(st ConnectionState, err error) bool {
	c.mu.Lock()
	old := c.state
	if old == st {
		c.mu.Unlock()
		return false
	}
	c.state = st
	metrics := c.metrics
	c.mu.Unlock()

	metrics.ConnectionState(st)
	c.dispatcher.Emit(EventStateChanged, StateEvent{OldState: old, NewState: st, Error: err})
	return true
}

// handleClose tears the connection down. The intentional flag is read before
// any retry is scheduled, so a Disconnect that raced with a drop still wins.
func (c *Client) handleClose(err error) {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.cancel = nil
	c.conn = nil
	intentional := c.intentional
	autoReconnect := c.cfg.AutoReconnect
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "closing")
	}

	if !c.transition(StateDisconnected, err) {
		return
	}
	c.dispatcher.Emit(EventDisconnected, err)

	if intentional || !autoReconnect {
		return
	}
	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	delay, ok := c.policy.next()
	if !ok {
		already := c.failedEmitted
		c.failedEmitted = true
		logger := c.logger
		c.mu.Unlock()
		if !already {
			logger.Warn("reconnect attempts exhausted", nil)
			c.dispatcher.Emit(EventReconnectFailed, nil)
		}
		return
	}
	attempt := c.policy.attempts
	logger := c.logger
	metrics := c.metrics
	c.mu.Unlock()

	metrics.ReconnectAttempt()
	logger.Info("reconnect scheduled", map[string]any{
		"attempt": attempt,
		"delay":   delay.String(),
	})
	c.transition(StateReconnecting, nil)

	c.mu.Lock()
	if c.intentional {
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = time.AfterFunc(delay, c.redial)
	c.mu.Unlock()
}

func (c *Client) redial() {
	c.mu.Lock()
	if c.intentional {
		c.mu.Unlock()
		return
	}
	c.reconnectTimer = nil
	c.mu.Unlock()

	if err := c.connect(context.Background()); err != nil {
		c.mu.Lock()
		logger := c.logger
		c.mu.Unlock()
		logger.Warn("reconnect attempt failed", map[string]any{"error": err.Error()})
		c.scheduleReconnect()
	}
}

func (c *Client) readLoop(ctx context.Context, conn *internal.Conn) {
	for {
		var f Frame
		if err := conn.ReadJSON(ctx, &f); err != nil {
			if ctx.Err() != nil || internal.IsNormalClosure(err) {
				c.handleClose(nil)
				return
			}
			c.dispatcher.Emit(EventError, WrapError(ErrorConnection, "read failed", err))
			c.handleClose(err)
			return
		}
		c.mu.Lock()
		metrics := c.metrics
		c.mu.Unlock()
		metrics.FrameReceived(f.Type)
		c.handleFrame(ctx, f)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *internal.Conn, ch chan outFrame) {
	for {
		select {
		case f := <-ch:
			if err := conn.WriteJSON(ctx, f); err != nil {
				if ctx.Err() == nil {
					c.dispatcher.Emit(EventError, WrapError(ErrorConnection, "write failed", err))
					c.handleClose(err)
				}
				return
			}
			c.mu.Lock()
			metrics := c.metrics
			c.mu.Unlock()
			metrics.FrameSent(f.Type)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) handleFrame(ctx context.Context, f Frame) {
	switch f.Type {
	case FramePing:
		c.replyPong()
	case FramePong:
		c.handlePong(ctx)
	case FrameMessage:
		var m Message
		if err := UnmarshalData(f.Data, &m); err != nil {
			c.dispatcher.Emit(EventError, WrapError(ErrorSerialization, "bad message frame", err))
			return
		}
		c.dispatcher.Emit(EventMessage, m)
	case FrameNotification:
		var n Notification
		if err := UnmarshalData(f.Data, &n); err != nil {
			c.dispatcher.Emit(EventError, WrapError(ErrorSerialization, "bad notification frame", err))
			return
		}
		c.dispatcher.Emit(EventNotification, n)
	case FrameStatus:
		var s StatusUpdate
		if err := UnmarshalData(f.Data, &s); err != nil {
			c.dispatcher.Emit(EventError, WrapError(ErrorSerialization, "bad status frame", err))
			return
		}
		c.markPresenceSupported()
		c.dispatcher.Emit(EventStatus, s)
	case FrameError:
		var p ErrorPayload
		if err := UnmarshalData(f.Data, &p); err != nil {
			c.dispatcher.Emit(EventError, WrapError(ErrorSerialization, "bad error frame", err))
			return
		}
		if c.downgradePresence(p) {
			return
		}
		c.dispatcher.Emit(EventError, FromProtocolError(&p))
	default:
		c.mu.Lock()
		logger := c.logger
		c.mu.Unlock()
		logger.Warn("dropping frame with unrecognized type", map[string]any{"type": f.Type})
	}
}

func (c *Client) replyPong() {
	c.mu.Lock()
	ch := c.writeCh
	c.mu.Unlock()
	if ch == nil {
		return
	}
	f := outFrame{Type: FramePong, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	select {
	case ch <- f:
	default:
	}
}

func (c *Client) markPresenceSupported() {
	c.mu.Lock()
	if c.presence == PresenceUnknown {
		c.presence = PresenceSupported
	}
	c.mu.Unlock()
}

// downgradePresence handles the rejection of the trial status frame: an error
// frame naming the status/unknown/unsupported type while the probe is
// outstanding disables status frames for the rest of the connection. The
// rejection is part of negotiation, not an application error, so it is logged
// rather than dispatched.
func (c *Client) downgradePresence(p ErrorPayload) bool {
	text := strings.ToLower(p.Code + " " + p.Message)
	if !strings.Contains(text, "status") &&
		!strings.Contains(text, "unknown") &&
		!strings.Contains(text, "unsupported") {
		return false
	}

	c.mu.Lock()
	if !c.probeSent || c.presence != PresenceUnknown {
		c.mu.Unlock()
		return false
	}
	c.presence = PresenceUnsupported
	logger := c.logger
	c.mu.Unlock()

	logger.Info("server rejected status frames, presence disabled", map[string]any{
		"code":    p.Code,
		"message": p.Message,
	})
	return true
}
