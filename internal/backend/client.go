// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is where the chat server listens by default.
	DefaultBaseURL = "http://localhost:8000"

	// MaxResponseSize caps how much of a reply body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

// Client talks to the chat server.
type Client struct {
	baseURL         string
	clearContextURL string
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          zerolog.Logger
}

// New creates a client for baseURL. No client-side timeout is applied
// unless WithTimeout is used.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		baseURL:         base,
		clearContextURL: base + "/api/chat",
		httpClient:      &http.Client{},
		logger:          zerolog.Nop(),
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout bounds each request. Zero disables the timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	hc := *c.httpClient
	hc.Timeout = timeout
	c.httpClient = &hc
	return c
}

// WithRateLimit allows at most rps requests per second. Zero disables it.
func (c *Client) WithRateLimit(rps float64) *Client {
	if rps <= 0 {
		c.limiter = nil
		return c
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return c
}

// WithClearContextURL sets where the clear-context signal is sent.
func (c *Client) WithClearContextURL(u string) *Client {
	if u != "" {
		c.clearContextURL = u
	}
	return c
}

// WithLogger sets the request logger.
func (c *Client) WithLogger(logger zerolog.Logger) *Client {
	c.logger = logger
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// TRANSPORT
// =============================================================================

// PostJSON sends body to path and decodes a 2xx reply into out (which may be
// nil). Non-2xx replies become *HTTPStatusError, using the reply's "error"
// field as the message when present.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.postJSON(ctx, c.baseURL+path, path, body, out)
}

func (c *Client) postJSON(ctx context.Context, url, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Path: path, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Bodies are never logged; they carry user text and file contents.
	c.logger.Debug().Str("method", req.Method).Str("path", path).Int("bytes", len(payload)).Msg("backend request")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("backend request failed")
		return &TransportError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("backend response")

	data, err := readResponse(resp)
	if err != nil {
		return &TransportError{Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &FormatError{Path: path, Reason: "failed to parse response", Err: err}
	}
	return nil
}

// readResponse reads at most MaxResponseSize bytes of the body.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

func errorFromResponse(path string, status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	return &HTTPStatusError{Path: path, Status: status, Message: payload.Error}
}

// Ping reports whether the server answers HTTP at all. Any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Path: "/", Err: err}
	}
	resp.Body.Close()
	return nil
}
