// Package venice talks to the Venice AI REST API and turns its responses into
// MCP result envelopes.
package venice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/venice-mcp/internal/common"
	"github.com/bobmcallan/venice-mcp/internal/config"
)

// maxResponseSize caps the response body to prevent OOM from unexpectedly large responses.
const maxResponseSize = 50 << 20 // 50MB

// ErrResponseTooLarge is returned when a response body exceeds the client's size cap.
var ErrResponseTooLarge = errors.New("venice response too large")

// Client issues authenticated requests against the Venice API base URL.
// It is safe for concurrent use; its fields are never mutated after construction.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	maxBody    int64
}

// SendOptions describes one outbound request.
type SendOptions struct {
	Method  string
	Body    interface{} // JSON-encoded when non-nil
	Query   url.Values
	Headers http.Header // applied last, overriding the defaults

	// Logger replaces the client logger for this request, e.g. one carrying
	// the caller's correlation id.
	Logger *common.Logger
}

// Response is the uninterpreted transport-level result of a request.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code indicates success.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient creates a client for the configured base URL and API key.
func NewClient(cfg config.VeniceConfig, logger *common.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{},
		logger:     logger,
		maxBody:    maxResponseSize,
	}
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send performs a request to path (relative to the base URL) and returns the raw response.
// Non-2xx statuses are not errors here; only transport failures are.
func (c *Client) Send(ctx context.Context, path string, opts SendOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		jsonData, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	target := c.baseURL + path
	if len(opts.Query) > 0 {
		target += "?" + opts.Query.Encode()
	}

	logger := c.logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	logger.Debug().Str("method", method).Str("path", path).Msg("venice request")

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", config.UserAgent())
	for key, vals := range opts.Headers {
		req.Header.Del(key)
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.Error().Str("method", method).Str("path", path).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("venice request failed")
		return nil, fmt.Errorf("venice request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		logger.Error().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Int64("limit", c.maxBody).Msg("venice response too large")
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, c.maxBody)
	}

	logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Int("bytes", len(body)).Int64("duration_ms", duration.Milliseconds()).Msg("venice response")

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
