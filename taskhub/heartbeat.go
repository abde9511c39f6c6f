package taskhub

import (
	"context"
	"time"
)

// heartbeatLoop emits a ping frame every PingInterval for the lifetime of one
// connection. It dies with the connection context, so the heartbeat stops
// whenever the socket closes, regardless of reason.
func (c *Client) heartbeatLoop(ctx context.Context) {
	c.mu.Lock()
	interval := c.cfg.PingInterval
	c.mu.Unlock()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Send(ctx, FramePing, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handlePong drives presence capability negotiation. The first pong triggers
// one optimistic trial status frame; a later pong with the probe still
// unanswered confirms support. A rejecting server answers the trial with an
// error frame, handled in downgradePresence.
func (c *Client) handlePong(ctx context.Context) {
	c.mu.Lock()
	probe := c.cfg.ProbePresence && !c.probeSent && c.presence == PresenceUnknown
	confirm := c.probeSent && c.presence == PresenceUnknown
	if probe {
		c.probeSent = true
	}
	if confirm {
		c.presence = PresenceSupported
	}
	userID := c.cfg.UserID
	logger := c.logger
	c.mu.Unlock()

	if probe {
		if err := c.Send(ctx, FrameStatus, StatusPayload{UserID: userID, Status: PresenceOnline}); err != nil {
			logger.Debug("presence probe not sent", map[string]any{"error": err.Error()})
		}
		return
	}
	if confirm {
		logger.Debug("presence status confirmed", nil)
	}
}
