// Package api is the HTTP client for the trial analytics service. Every
// endpoint wraps its payload in a {success, data} envelope; the client
// unwraps it and surfaces failures as *RequestError values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ptscope/ptscope/pkg/model"
	"github.com/ptscope/ptscope/pkg/version"
)

// DefaultTimeout bounds every request; the UI shows an error state rather
// than hanging on a dead server.
const DefaultTimeout = 15 * time.Second

// Gateway is the read surface the dashboard depends on. The live client and
// the offline source both implement it.
type Gateway interface {
	// ListTrials fetches trials matching the query parameters.
	ListTrials(ctx context.Context, query url.Values) ([]model.Trial, error)
	// Explanation fetches the SHAP attribution for one trial.
	Explanation(ctx context.Context, trialID string) (*model.SHAPExplanation, error)
	// Analytics fetches the precomputed aggregate snapshot.
	Analytics(ctx context.Context) (*model.AnalyticsSnapshot, error)
	// Chat sends one user message and returns the structured answer.
	Chat(ctx context.Context, message string) (*model.ChatResponse, error)
}

// RequestError is a non-2xx response or an envelope-level failure. The
// message comes from the server when it sent one.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed with status %d", e.StatusCode)
}

// envelope is the wire wrapper every endpoint uses. Failures carry the
// reason in the message field.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// Client talks to one analytics service instance.
type Client struct {
	baseURL string
	hc      *http.Client
	ua      string
	log     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: DefaultTimeout},
		ua:      "ptscope/" + version.Version,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string { return c.baseURL }

// do issues the request and decodes the envelope body into out. Transport
// errors pass through wrapped; HTTP and envelope failures become
// *RequestError.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// The server usually sends an envelope with the failure reason;
		// keep it if decodable, fall back to the bare status otherwise.
		var env envelope[json.RawMessage]
		msg := ""
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
			msg = env.Message
		}
		return &RequestError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// get fetches path with query parameters and unwraps the envelope.
func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, err
	}
	var env envelope[T]
	if err := c.do(req, &env); err != nil {
		return zero, err
	}
	if !env.Success {
		return zero, &RequestError{StatusCode: http.StatusOK, Message: env.Message}
	}
	return env.Data, nil
}

// post sends body as JSON to path and unwraps the envelope.
func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var zero T
	payload, err := json.Marshal(body)
	if err != nil {
		return zero, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	var env envelope[T]
	if err := c.do(req, &env); err != nil {
		return zero, err
	}
	if !env.Success {
		return zero, &RequestError{StatusCode: http.StatusOK, Message: env.Message}
	}
	return env.Data, nil
}

// ListTrials implements Gateway.
func (c *Client) ListTrials(ctx context.Context, query url.Values) ([]model.Trial, error) {
	return get[[]model.Trial](ctx, c, "/api/trials", query)
}

// Explanation implements Gateway.
func (c *Client) Explanation(ctx context.Context, trialID string) (*model.SHAPExplanation, error) {
	if trialID == "" {
		return nil, fmt.Errorf("empty trial id")
	}
	exp, err := get[model.SHAPExplanation](ctx, c, "/api/trials/"+url.PathEscape(trialID)+"/shap", nil)
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// Analytics implements Gateway.
func (c *Client) Analytics(ctx context.Context) (*model.AnalyticsSnapshot, error) {
	snap, err := get[model.AnalyticsSnapshot](ctx, c, "/api/trials/analytics", nil)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message string `json:"message"`
}

// Chat implements Gateway.
func (c *Client) Chat(ctx context.Context, message string) (*model.ChatResponse, error) {
	resp, err := post[model.ChatResponse](ctx, c, "/api/chat", chatRequest{Message: message})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
