package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"journal/internal/log"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

// TokenSource yields the bearer token for the current session, or "" when
// there is none.
type TokenSource interface {
	Token() string
}

// Options describes a single request. Body is encoded as JSON when non-nil.
type Options struct {
	Method  string
	Body    any
	Headers map[string]string
}

// Envelope is the normalized response body. Bodies that are not JSON objects
// are folded into Message so callers never see a parse failure.
type Envelope struct {
	Message string          `json:"message,omitempty"`
	Token   string          `json:"token,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

// Client talks to the remote journal API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	tokens     TokenSource
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource attaches the session token provider.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for baseURL. Every request is bounded by timeout
// (15s when zero).
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentAPI)
	}
	return c
}

// SetTokenSource wires the session after construction; the session itself
// needs the client to log in.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// Do issues a request against endpoint (relative to the base URL) and returns
// the normalized body. Non-2xx responses fail with *Error.
func (c *Client) Do(ctx context.Context, endpoint string, opts Options) (Envelope, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s %s body: %w", method, endpoint, err)
		}
		body = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return Envelope{}, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "API request failed",
			log.FieldMethod, method,
			log.FieldEndpoint, endpoint,
			log.FieldError, err)
		return Envelope{}, transportError(err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Envelope{}, transportError(err)
	}

	env := decodeEnvelope(text, resp.StatusCode)

	c.logger.DebugContext(ctx, "API request completed",
		log.FieldMethod, method,
		log.FieldEndpoint, endpoint,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = DefaultErrorMessage
		}
		kind := KindStatus
		if resp.StatusCode == http.StatusUnauthorized {
			kind = KindUnauthorized
		}
		return env, &Error{Kind: kind, Status: resp.StatusCode, Message: msg}
	}
	return env, nil
}

// decodeEnvelope reads text as JSON and falls back to a message-only envelope.
func decodeEnvelope(text []byte, status int) Envelope {
	var env Envelope
	if err := json.Unmarshal(text, &env); err != nil {
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = fmt.Sprintf("Server Error: %d", status)
		}
		return Envelope{Message: msg, Raw: text}
	}
	env.Raw = text
	return env
}

func transportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: "the server did not answer in time", Err: err}
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// decodeList unmarshals the data array of env; a missing array is empty.
func decodeList[T any](env Envelope, endpoint string) ([]T, error) {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, &Error{Kind: KindMalformed, Message: fmt.Sprintf("unexpected %s payload", endpoint), Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
