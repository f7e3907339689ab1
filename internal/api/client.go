// Package api is a typed client for the Conduit article and comment endpoints.
// Each method issues exactly one HTTP request and never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"conduit/internal/apperr"

	"go.uber.org/zap"
)

const (
	basePath = "/api"

	// maxErrorBody caps how much of an error response is read for its message.
	maxErrorBody = 4 << 10
)

// Client talks to one API host. The base URL comes from configuration.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL (e.g. "http://localhost:3000").
// A zero timeout leaves requests bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client with a custom http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// BaseURL returns the host the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request. in is encoded as the JSON body when non-nil and out is
// decoded from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &apperr.EncodeError{Op: op, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+basePath+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apperr.RequestError{
			Op:      op,
			Method:  method,
			Path:    basePath + path,
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A body cut off by a deadline is a transport failure, not a bad payload.
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return &apperr.NetworkError{Op: op, Err: err}
		}
		return &apperr.RequestError{
			Op:      op,
			Method:  method,
			Path:    basePath + path,
			Status:  resp.StatusCode,
			Message: "decode response: " + err.Error(),
		}
	}
	return nil
}

// readErrorMessage pulls a human message out of an error body. The server is
// not consistent, so several shapes are accepted before falling back to text.
func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return ""
	}

	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		case len(payload.Errors) > 0:
			return flattenErrors(payload.Errors)
		}
	}

	return strings.TrimSpace(string(data))
}

// flattenErrors renders {"title":["can't be blank"]} or ["msg"] as one line.
func flattenErrors(raw json.RawMessage) string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}

	var byField map[string][]string
	if json.Unmarshal(raw, &byField) == nil {
		parts := make([]string, 0, len(byField))
		for field, msgs := range byField {
			parts = append(parts, field+" "+strings.Join(msgs, ", "))
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}

	return string(raw)
}
