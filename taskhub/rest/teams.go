package rest

import (
	"context"
	"net/url"
)

// ListTeams returns the teams the caller belongs to.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var resp []Team
	if err := c.get(ctx, "/teams", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetTeam returns one team by id.
func (c *Client) GetTeam(ctx context.Context, id string) (*Team, error) {
	var resp Team
	if err := c.get(ctx, "/teams/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
