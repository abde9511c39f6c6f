package rest

import (
	"context"
	"net/url"
	"strconv"
)

// ListProducts returns service listings matching filter. Results are served
// from the local TTL cache when the same filter was requested recently.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	key := filter.queryString()
	if cached, ok := c.products.get(key); ok {
		return cached, nil
	}

	path := "/products"
	if key != "" {
		path += "?" + key
	}
	var resp []Product
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	c.products.put(key, resp)
	return resp, nil
}

// GetProduct returns a single listing by id.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	var resp Product
	if err := c.get(ctx, "/products/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (f ProductFilter) queryString() string {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.MinPriceCents > 0 {
		q.Set("minPrice", strconv.FormatInt(f.MinPriceCents, 10))
	}
	if f.MaxPriceCents > 0 {
		q.Set("maxPrice", strconv.FormatInt(f.MaxPriceCents, 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q.Encode()
}
