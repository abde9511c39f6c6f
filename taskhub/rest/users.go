package rest

import (
	"context"
	"net/url"
)

// GetUser returns a public user profile by id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var resp User
	if err := c.get(ctx, "/users/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
