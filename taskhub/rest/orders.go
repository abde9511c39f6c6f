package rest

import (
	"context"
	"net/url"
)

// CreateOrder places an order for a listing.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var resp Order
	if err := c.post(ctx, "/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrder returns one order by id.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	var resp Order
	if err := c.get(ctx, "/orders/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOrders returns the caller's orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, status OrderStatus) ([]Order, error) {
	path := "/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var resp []Order
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AcceptOrder accepts a pending order. Provider side of the order flow; the
// customer learns about it through an order notification frame.
func (c *Client) AcceptOrder(ctx context.Context, id string) (*Order, error) {
	var resp Order
	if err := c.post(ctx, "/orders/"+url.PathEscape(id)+"/accept", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RejectOrder rejects a pending order with an optional reason.
func (c *Client) RejectOrder(ctx context.Context, id, reason string) (*Order, error) {
	var resp Order
	if err := c.post(ctx, "/orders/"+url.PathEscape(id)+"/reject", RejectOrderRequest{Reason: reason}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
