// Package backend is the REST client for the remote supply-chain API. The
// backend is the source of truth; everything here is request plumbing:
// bearer credentials, per-call timeouts, tolerant list decoding, and
// structured error extraction.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// Client talks to the remote supply-chain API.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *zap.Logger
}

// New creates a client for the given base URL and bearer credential.
func New(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{},
		logger:  logger,
	}
}

// APIError is a non-success response from the backend, carrying whatever
// structured message could be extracted from the body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.Status)
}

// do issues a JSON request and decodes the response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: extractErrorMessage(data)}
		c.logger.Warn("backend error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// extractErrorMessage pulls a human-readable message out of an error body.
// The backend has shipped several shapes over time; try each, fall back to
// empty (the caller supplies a generic message).
func extractErrorMessage(data []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Data    struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}
	for _, m := range []string{envelope.Error, envelope.Message, envelope.Data.Error, envelope.Data.Message} {
		if m != "" {
			return m
		}
	}
	return ""
}

// listEnvelope is the cursor-paginated list shape some endpoints return.
type listEnvelope struct {
	Items   json.RawMessage `json:"items"`
	Cursor  string          `json:"cursor"`
	HasMore bool            `json:"hasMore"`
}

// decodeList unmarshals a list body into out, accepting both the
// {items, cursor, hasMore} page shape and a bare JSON array. Returns the
// cursor and hasMore flag (zero values for bare arrays).
func decodeList(data []byte, out interface{}) (cursor string, hasMore bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", false, nil
	}
	if trimmed[0] == '[' {
		return "", false, json.Unmarshal(trimmed, out)
	}
	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return "", false, fmt.Errorf("decode list: %w", err)
	}
	if len(env.Items) > 0 {
		if err := json.Unmarshal(env.Items, out); err != nil {
			return "", false, fmt.Errorf("decode list items: %w", err)
		}
	}
	return env.Cursor, env.HasMore, nil
}

// getList fetches path and decodes it with decodeList into out, following
// cursors until the backend reports no more pages.
func (c *Client) getList(ctx context.Context, path string, query url.Values, newSlice func() interface{}, appendPage func(interface{})) error {
	cursor := ""
	for {
		q := url.Values{}
		for k, vs := range query {
			q[k] = vs
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}
		var raw json.RawMessage
		if err := c.do(ctx, http.MethodGet, path, q, nil, &raw); err != nil {
			return err
		}
		page := newSlice()
		next, hasMore, err := decodeList(raw, page)
		if err != nil {
			return err
		}
		appendPage(page)
		if !hasMore || next == "" {
			return nil
		}
		cursor = next
	}
}
