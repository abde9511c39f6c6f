// Package rest provides the TaskHub REST API client: authentication,
// products, orders, teams, users, push tokens and attachment uploads. It is
// the request/response counterpart to the realtime socket in package taskhub.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client provides REST API access to the TaskHub backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	products   *productCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithProductCacheTTL overrides how long product listings are served from the
// local cache. Zero disables the cache.
func WithProductCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.products = newProductCache(ttl)
	}
}

// NewClient creates a REST client. baseURL is the API root, e.g.
// "https://api.taskhub.app/api".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		products: newProductCache(defaultProductTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token for authenticated requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindUnknown, Message: "marshal request", Err: err}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return &APIError{Kind: KindUnknown, Message: "create request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return &APIError{Kind: KindUnknown, Message: "create request", Err: err}
	}
	return c.do(req, dest)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, http.NoBody)
	if err != nil {
		return &APIError{Kind: KindUnknown, Message: "create request", Err: err}
	}
	return c.do(req, nil)
}

// do executes the request and classifies any failure exactly once.
func (c *Client) do(req *http.Request, dest any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: "read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		message := fmt.Sprintf("http status %d", resp.StatusCode)
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &APIError{
			Kind:    classifyStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: message,
		}
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return &APIError{Kind: KindUnknown, Status: resp.StatusCode, Message: "unmarshal response", Err: err}
		}
	}
	return nil
}
