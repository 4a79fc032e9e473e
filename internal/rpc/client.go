package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/akegaviar/graph-node/pkg/ratelimiter"
)

// Client is a JSON-RPC 2.0 client for one endpoint URL. Safe for
// concurrent use.
type Client struct {
	httpClient  *http.Client
	url         string
	hostname    string
	auth        *AuthConfig
	rateLimiter *ratelimiter.RateLimiter

	rpcID atomic.Int64
}

func NewClient(rawURL string, auth *AuthConfig, timeout time.Duration, limiter *ratelimiter.RateLimiter) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid endpoint url %q", rawURL)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		url:         rawURL,
		hostname:    parsed.Hostname(),
		auth:        auth,
		rateLimiter: limiter,
	}, nil
}

// Hostname identifies the endpoint in diagnostics; never the full URL,
// which may embed an API key.
func (c *Client) Hostname() string { return c.hostname }

func (c *Client) nextID() int64 { return c.rpcID.Add(1) }

// NextRequestIDs reserves n request ids for a batch.
func (c *Client) NextRequestIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = c.nextID()
	}
	return ids
}

// Call performs a single JSON-RPC request. A JSON-RPC error object is
// returned as *Error.
func (c *Client) Call(ctx context.Context, method string, params any) (*Response, error) {
	req := &Request{
		ID:      c.nextID(),
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	body, err := c.post(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%s: %w", method, resp.Error)
	}
	return &resp, nil
}

// CallBatch posts several requests in one round trip. Responses come back
// keyed by request id; per-entry errors are left in place for the caller.
func (c *Client) CallBatch(ctx context.Context, reqs []*Request) (map[int64]*Response, error) {
	if len(reqs) == 0 {
		return map[int64]*Response{}, nil
	}

	body, err := c.post(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("batch of %d: %w", len(reqs), err)
	}

	var resps []*Response
	if err := json.Unmarshal(body, &resps); err != nil {
		return nil, fmt.Errorf("batch of %d: decoding response: %w", len(reqs), err)
	}

	byID := make(map[int64]*Response, len(resps))
	for _, r := range resps {
		byID[r.ID] = r
	}
	return byID, nil
}

func (c *Client) post(ctx context.Context, payload any) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth.apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
