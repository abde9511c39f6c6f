package rest

import (
	"context"
	"net/url"
)

// RegisterPushToken registers a device token so the backend can reach this
// device when the realtime socket is down.
func (c *Client) RegisterPushToken(ctx context.Context, req PushTokenRequest) error {
	return c.post(ctx, "/push/tokens", req, nil)
}

// UnregisterPushToken removes a previously registered device token.
func (c *Client) UnregisterPushToken(ctx context.Context, token string) error {
	return c.delete(ctx, "/push/tokens/"+url.PathEscape(token))
}
