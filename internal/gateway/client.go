// Package gateway owns the connection to the analytics backend. It builds
// requests, applies the fixed timeout, logs every exchange, and normalizes
// all failures into a small stable taxonomy so callers never see raw
// transport errors.
package gateway

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

// DefaultTimeout bounds every request to the backend.
const DefaultTimeout = 30 * time.Second

// Client talks HTTP to the backend. It holds no conversation state.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New builds a client for the given base endpoint. A non-positive timeout
// falls back to DefaultTimeout; a nil logger falls back to a no-op one.
func New(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SendMessage posts one user query and returns the backend's answer.
func (c *Client) SendMessage(ctx context.Context, message, conversationID string) (*ChatResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/chat", ChatRequest{
		Message:        message,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, err
	}
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindUnknown, Op: "POST /chat", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &resp, nil
}

// Health returns the backend's liveness payload verbatim.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/health", nil)
}

// Schema returns the named source's schema payload verbatim.
func (c *Client) Schema(ctx context.Context, source string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/schema/"+url.PathEscape(source), nil)
}

// CheckAvailability probes GET / and swallows the error. Liveness badge
// only; callers must not base correctness decisions on it.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	if _, err := c.do(ctx, http.MethodGet, "/", nil); err != nil {
		c.log.Debug("availability probe failed", zap.String("kind", string(KindOf(err))))
		return false
	}
	return true
}

// do is the single adapter every outbound call goes through. It performs
// the request, logs the exchange, and wraps any failure in *Error so the
// taxonomy stays exhaustive and consistent.
func (c *Client) do(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	op := method + " " + path
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Op: op, Err: err}
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := classifyTransport(err)
		c.log.Warn("gateway request failed",
			zap.String("op", op),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil, &Error{Kind: kind, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("gateway body read failed", zap.String("op", op), zap.Error(err))
		return nil, &Error{Kind: KindUnknown, Op: op, Status: resp.StatusCode, Err: err}
	}

	c.log.Info("gateway request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := classifyStatus(resp.StatusCode)
		return nil, &Error{
			Kind:   kind,
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("http %d: %s", resp.StatusCode, compactBody(body)),
		}
	}
	return body, nil
}

// compactBody trims an error payload to one short log-friendly line.
func compactBody(body []byte) string {
	text := strings.Join(strings.Fields(string(body)), " ")
	const limit = 240
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
