package taskhub

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heartbeatConfig(wsURL string) *Config {
	cfg := testConfig(wsURL)
	cfg.PingInterval = 10 * time.Millisecond
	cfg.ProbePresence = true
	return cfg
}

func TestHeartbeatSendsPings(t *testing.T) {
	var pings atomic.Int64
	srv := newWSServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			var f Frame
			if err := wsjson.Read(ctx, conn, &f); err != nil {
				return
			}
			if f.Type == FramePing {
				pings.Add(1)
				_ = wsjson.Write(ctx, conn, Frame{Type: FramePong})
			}
		}
	})

	cfg := heartbeatConfig(srv.url())
	cfg.ProbePresence = false
	c := newTestClient(t, cfg)
	require.NoError(t, c.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return pings.Load() >= 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Disconnect())
	count := pings.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, count, pings.Load(), "heartbeat must stop when the socket closes")
}

func TestPresenceProbeDowngradesPermanently(t *testing.T) {
	srv := newWSServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			var f Frame
			if err := wsjson.Read(ctx, conn, &f); err != nil {
				return
			}
			switch f.Type {
			case FramePing:
				_ = wsjson.Write(ctx, conn, Frame{Type: FramePong})
			case FrameStatus:
				data, _ := json.Marshal(ErrorPayload{Code: "unknown_type", Message: "unknown message type: status"})
				_ = wsjson.Write(ctx, conn, Frame{Type: FrameError, Data: data})
			}
		}
	})

	c := newTestClient(t, heartbeatConfig(srv.url()))
	var errEvents atomic.Int64
	c.OnError(func(error) { errEvents.Add(1) })

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, PresenceUnknown, c.Presence(), "capability starts unprobed")

	require.Eventually(t, func() bool {
		return c.Presence() == PresenceUnsupported
	}, 2*time.Second, 10*time.Millisecond, "probe rejection must downgrade presence")

	err := c.SendStatus(context.Background(), PresenceAway)
	require.ErrorIs(t, err, ErrPresenceUnsupported)

	// The downgrade holds for the remainder of the connection.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, PresenceUnsupported, c.Presence())
	assert.Zero(t, errEvents.Load(), "negotiation rejection is not an application error")
}

func TestPresenceConfirmedWhenServerAccepts(t *testing.T) {
	srv := newWSServer(t, func(conn *websocket.Conn) {
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
	})

	c := newTestClient(t, heartbeatConfig(srv.url()))
	require.NoError(t, c.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return c.Presence() == PresenceSupported
	}, 2*time.Second, 10*time.Millisecond, "a quiet server after the probe confirms support")

	require.NoError(t, c.SendStatus(context.Background(), PresenceOnline))
}

func TestInboundStatusFrameDispatchedAndConfirmsSupport(t *testing.T) {
	update := StatusUpdate{UserID: "u7", Status: PresenceAway, Timestamp: time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)}
	srv := newWSServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		data, _ := json.Marshal(update)
		_ = wsjson.Write(ctx, conn, Frame{Type: FrameStatus, Data: data})
		echoHandler(conn)
	})

	c := newTestClient(t, testConfig(srv.url()))
	got := make(chan StatusUpdate, 1)
	c.OnStatus(func(s StatusUpdate) { got <- s })

	require.NoError(t, c.Connect(context.Background()))

	select {
	case s := <-got:
		assert.Equal(t, update, s)
	case <-time.After(2 * time.Second):
		t.Fatal("status event not dispatched")
	}
	assert.Equal(t, PresenceSupported, c.Presence())
}
