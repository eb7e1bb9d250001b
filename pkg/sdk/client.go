// Package maya is a small HTTP client for the maya chat API.
package maya

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 90 * time.Second

// Client talks to a running maya server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ChatResult is the server's answer to a chat message.
type ChatResult struct {
	Response string `json:"response"`
	Agent    string `json:"agent"`
}

// Chat sends a message through the agent router. sessionID may be empty;
// when set, the exchange is recorded in that session's history.
func (c *Client) Chat(ctx context.Context, message, sessionID string) (ChatResult, error) {
	req := map[string]string{"message": message}
	if sessionID != "" {
		req["session_id"] = sessionID
	}

	var result ChatResult
	if err := c.post(ctx, "/api/chat/agent", req, &result); err != nil {
		return ChatResult{}, err
	}
	return result, nil
}

// Scheme is one ranked catalog record.
type Scheme struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Benefits    string  `json:"benefits"`
	Category    string  `json:"category"`
	Distance    float64 `json:"distance"`
}

type schemeSearchResponse struct {
	Schemes []Scheme `json:"schemes"`
	Count   int      `json:"count"`
}

// SearchSchemes ranks stored schemes against the message. limit <= 0 uses
// the server default.
func (c *Client) SearchSchemes(ctx context.Context, message string, limit int) ([]Scheme, error) {
	req := map[string]any{"message": message}
	if limit > 0 {
		req["limit"] = limit
	}

	var resp schemeSearchResponse
	if err := c.post(ctx, "/api/chat/schemes", req, &resp); err != nil {
		return nil, err
	}
	return resp.Schemes, nil
}

// Message is one chat-history entry.
type Message struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type historyResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// History returns a session's messages in order.
func (c *Client) History(ctx context.Context, sessionID string) ([]Message, error) {
	var resp historyResponse
	if err := c.get(ctx, "/api/chat/history/"+url.PathEscape(sessionID), &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// Sessions returns known session IDs, newest activity first.
func (c *Client) Sessions(ctx context.Context) ([]string, error) {
	var resp sessionsResponse
	if err := c.get(ctx, "/api/chat/sessions", &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Health reports the server's dependency health.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CheckHealth calls /health. A degraded server still returns its report;
// the Status field tells the two cases apart.
func (c *Client) CheckHealth(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return Health{}, fmt.Errorf("maya: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("maya: GET /health: %w", err)
	}
	defer resp.Body.Close()

	// The server answers 200 when healthy and 503 when degraded, with the
	// report in the body either way.
	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("maya: decode health response: %w", err)
	}
	return h, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("maya: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("maya: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("maya: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("maya: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("maya: decode response: %w", err)
		}
	}
	return nil
}
