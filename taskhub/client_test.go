package taskhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsServer hosts a scripted websocket endpoint for client tests.
type wsServer struct {
	srv      *httptest.Server
	upgrades atomic.Int64
	requests atomic.Int64
	reject   atomic.Bool

	mu        sync.Mutex
	lastQuery url.Values
}

func newWSServer(t *testing.T, handler func(conn *websocket.Conn)) *wsServer {
	t.Helper()
	s := &wsServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		s.lastQuery = r.URL.Query()
		s.mu.Unlock()

		if s.reject.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		s.upgrades.Add(1)
		handler(conn)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) query() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery
}

// echoHandler answers pings and discards everything else until the peer
// goes away.
func echoHandler(conn *websocket.Conn) {
	ctx := context.Background()
	defer conn.Close(websocket.StatusNormalClosure, "")
	for {
		var f Frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			return
		}
		if f.Type == FramePing {
			_ = wsjson.Write(ctx, conn, Frame{Type: FramePong})
		}
	}
}

func testConfig(wsURL string) *Config {
	cfg := DefaultConfig()
	cfg.URL = wsURL
	cfg.UserID = "u1"
	cfg.Token = "se cret/token"
	cfg.PingInterval = 0
	cfg.ProbePresence = false
	cfg.AutoReconnect = false
	return &cfg
}

func newTestClient(t *testing.T, cfg *Config) *Client {
	t.Helper()
	c := NewClient(cfg)
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func TestConnectEmbedsCredentialsInURL(t *testing.T) {
	srv := newWSServer(t, echoHandler)
	c := newTestClient(t, testConfig(srv.url()))

	require.NoError(t, c.Connect(context.Background()))

	q := srv.query()
	assert.Equal(t, "u1", q.Get("userId"))
	assert.Equal(t, "se cret/token", q.Get("token"), "token must survive URL encoding intact")
}

func TestConnectIsIdempotent(t *testing.T) {
	srv := newWSServer(t, echoHandler)
	c := newTestClient(t, testConfig(srv.url()))

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "connect %d", i)
	}
	assert.Equal(t, int64(1), srv.upgrades.Load(), "rapid connects must share one socket")
	assert.True(t, c.IsConnected())

	// A later Connect on an open client is a no-op too.
	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, int64(1), srv.upgrades.Load())
}

func TestSendWhileDisconnected(t *testing.T) {
	c := newTestClient(t, testConfig("ws://127.0.0.1:1/ws"))

	err := c.SendMessage(context.Background(), ChatPayload{RecipientID: "u2", Content: "hi"})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestConnectRequiresConfig(t *testing.T) {
	c := newTestClient(t, &Config{})
	err := c.Connect(context.Background())
	require.ErrorIs(t, err, NewError(ErrorInvalidConfig, ""))
}

func TestMessageFrameRoundTrip(t *testing.T) {
	sent := Message{
		ID:         "m42",
		SenderID:   "u9",
		SenderName: "Dana",
		TeamID:     "team-1",
		Content:    "the quote is ready",
		Type:       MessageText,
		Timestamp:  time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
	}

	srv := newWSServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		data, _ := json.Marshal(sent)
		_ = wsjson.Write(ctx, conn, Frame{Type: FrameMessage, Data: data})
		echoHandler(conn)
	})

	c := newTestClient(t, testConfig(srv.url()))
	got := make(chan Message, 1)
	c.OnMessage(func(m Message) { got <- m })

	require.NoError(t, c.Connect(context.Background()))

	select {
	case m := <-got:
		assert.Equal(t, sent, m, "dispatched payload must carry every field unchanged")
	case <-time.After(2 * time.Second):
		t.Fatal("message event not dispatched")
	}
}

func TestUnrecognizedFrameIsDropped(t *testing.T) {
	srv := newWSServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		_ = wsjson.Write(ctx, conn, Frame{Type: "telemetry"})
		data, _ := json.Marshal(Message{ID: "after", Content: "still alive"})
		_ = wsjson.Write(ctx, conn, Frame{Type: FrameMessage, Data: data})
		echoHandler(conn)
	})

	c := newTestClient(t, testConfig(srv.url()))
	got := make(chan Message, 1)
	c.OnMessage(func(m Message) { got <- m })

	require.NoError(t, c.Connect(context.Background()))

	select {
	case m := <-got:
		assert.Equal(t, "after", m.ID, "dispatcher must survive the unknown frame")
	case <-time.After(2 * time.Second):
		t.Fatal("message after unknown frame not dispatched")
	}
}

func TestProtocolErrorDispatchedWithoutClosing(t *testing.T) {
	srv := newWSServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		data, _ := json.Marshal(ErrorPayload{Code: "rate_limited", Message: "slow down"})
		_ = wsjson.Write(ctx, conn, Frame{Type: FrameError, Data: data})
		echoHandler(conn)
	})

	c := newTestClient(t, testConfig(srv.url()))
	errCh := make(chan error, 1)
	c.OnError(func(err error) { errCh <- err })

	require.NoError(t, c.Connect(context.Background()))

	select {
	case err := <-errCh:
		var ce *ClientError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, ErrorRateLimited, ce.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("error event not dispatched")
	}
	assert.True(t, c.IsConnected(), "protocol errors must not close the connection")
}

func TestDisconnectSuppressesReconnect(t *testing.T) {
	srv := newWSServer(t, echoHandler)

	cfg := testConfig(srv.url())
	cfg.AutoReconnect = true
	cfg.ReconnectInterval = 5 * time.Millisecond
	cfg.MaxReconnectDelay = 20 * time.Millisecond
	c := newTestClient(t, cfg)

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Disconnect())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(1), srv.requests.Load(), "no redial after an intentional disconnect")
	assert.Equal(t, StateDisconnected, c.State())
}

func TestReconnectAfterUnexpectedClose(t *testing.T) {
	conns := make(chan *websocket.Conn, 4)
	srv := newWSServer(t, func(conn *websocket.Conn) {
		conns <- conn
		echoHandler(conn)
	})

	cfg := testConfig(srv.url())
	cfg.AutoReconnect = true
	cfg.ReconnectInterval = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 40 * time.Millisecond
	c := newTestClient(t, cfg)

	require.NoError(t, c.Connect(context.Background()))
	first := <-conns

	// Server-side drop with an abnormal status: the client must redial.
	_ = first.Close(websocket.StatusInternalError, "dropping you")

	require.Eventually(t, func() bool {
		return srv.upgrades.Load() >= 2 && c.IsConnected()
	}, 2*time.Second, 10*time.Millisecond, "client should reconnect after an unexpected close")
}

func TestReconnectFailedFiresOnceAfterBudget(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	srv := newWSServer(t, func(conn *websocket.Conn) {
		conns <- conn
		echoHandler(conn)
	})

	cfg := testConfig(srv.url())
	cfg.AutoReconnect = true
	cfg.ReconnectInterval = 5 * time.Millisecond
	cfg.ReconnectMultiplier = 1.5
	cfg.MaxReconnectDelay = 20 * time.Millisecond
	cfg.MaxReconnectTries = 3
	c := newTestClient(t, cfg)

	var failed atomic.Int64
	c.OnReconnectFailed(func() { failed.Add(1) })

	require.NoError(t, c.Connect(context.Background()))
	first := <-conns
	requestsBefore := srv.requests.Load()

	srv.reject.Store(true)
	_ = first.Close(websocket.StatusInternalError, "going down")

	require.Eventually(t, func() bool {
		return failed.Load() == 1
	}, 2*time.Second, 10*time.Millisecond, "reconnect-failed should fire after the budget is spent")

	assert.Equal(t, int64(3), srv.requests.Load()-requestsBefore, "exactly MaxReconnectTries dials")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), failed.Load(), "reconnect-failed must fire exactly once")
	assert.Equal(t, StateDisconnected, c.State())
}

func TestStateEventsFollowLifecycle(t *testing.T) {
	srv := newWSServer(t, echoHandler)
	c := newTestClient(t, testConfig(srv.url()))

	var mu sync.Mutex
	var states []ConnectionState
	c.OnStateChanged(func(ev StateEvent) {
		mu.Lock()
		states = append(states, ev.NewState)
		mu.Unlock()
	})

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Disconnect())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []ConnectionState{StateConnecting, StateConnected, StateDisconnected}, states[:3])
}
