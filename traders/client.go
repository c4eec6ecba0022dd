package traders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBaseURL is the public game API.
	DefaultBaseURL = "https://api.spacetraders.io/v2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxResponseBytes limits response bodies to 10 MB.
	maxResponseBytes = 10 << 20
)

// ErrEmptyResponse is returned when a response that should carry data has none.
var ErrEmptyResponse = errors.New("empty response body")

// Option configures a Client.
type Option func(*Client)

// Client talks to the game API. It is safe for concurrent use.
type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	retry    RetryPolicy
	cache    Cache
	cacheTTL time.Duration
	logger   *log.Logger
	jitter   func() time.Duration
	now      func() time.Time
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithToken sets the agent bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient overrides the default HTTP client (useful for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		c.retry = p
	}
}

// WithCache caches static game data (systems, waypoints, jump gates) for ttl.
// A ttl of zero or less uses DefaultCacheTTL.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithLogger sets the logger used for retries and rejected requests.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithJitter overrides the random delay added to Retry-After waits.
func WithJitter(fn func() time.Duration) Option {
	return func(c *Client) {
		c.jitter = fn
	}
}

// New returns a Client with the given options applied.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: DefaultTimeout},
		retry:    DefaultRetryPolicy(),
		cache:    NullCache{},
		cacheTTL: DefaultCacheTTL,
		logger:   log.Default(),
		jitter:   defaultJitter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NullCache{}
	}
	if c.jitter == nil {
		c.jitter = func() time.Duration { return 0 }
	}
	return c
}

// HasToken reports whether an agent token is configured.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// Close releases the cache.
func (c *Client) Close() error {
	return c.cache.Close()
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *Meta           `json:"meta,omitempty"`
}

// call performs a request and decodes the "data" member into T.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (*T, *Meta, error) {
	_, raw, err := c.request(ctx, method, path, body)
	if err != nil {
		return nil, nil, err
	}
	data, meta, err := unwrap(method, path, raw)
	if err != nil {
		return nil, nil, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, nil, fmt.Errorf("%s %s: decoding data: %w", method, path, err)
	}
	return out, meta, nil
}

// cached is call for GETs of static data, consulting the cache first.
// Cache failures are logged and treated as misses.
func cached[T any](ctx context.Context, c *Client, path string) (*T, error) {
	key := "api:" + path
	if data, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("cache read failed", "key", key, "err", err)
	} else if ok {
		out := new(T)
		if err := json.Unmarshal(data, out); err == nil {
			return out, nil
		}
		c.logger.Warn("discarding unreadable cache entry", "key", key)
	}

	_, raw, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	data, _, err := unwrap(http.MethodGet, path, raw)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("GET %s: decoding data: %w", path, err)
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("cache write failed", "key", key, "err", err)
	}
	return out, nil
}

func unwrap(method, path string, raw []byte) (json.RawMessage, *Meta, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, ErrEmptyResponse)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("%s %s: decoding envelope: %w", method, path, err)
	}
	if len(env.Data) == 0 {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, ErrEmptyResponse)
	}
	return env.Data, env.Meta, nil
}

// request sends one logical request, retrying per the client's RetryPolicy.
// It returns the status and the raw body of the first successful attempt.
func (c *Client) request(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: encoding body: %w", method, path, err)
		}
	}

	attempts := c.retry.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		status, data, err := c.send(ctx, method, path, payload)
		if err == nil {
			return status, data, nil
		}
		lastErr = err

		var re *RetryableError
		if !errors.As(err, &re) || attempt == attempts {
			break
		}
		wait := re.After
		if wait <= 0 {
			wait = c.retry.delay(attempt)
		}
		c.logger.Warn("retrying request", "method", method, "path", path, "attempt", attempt, "wait", wait, "err", err)
		if err := sleepContext(ctx, wait); err != nil {
			return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	if attempts > 1 && IsRetryable(lastErr) {
		return 0, nil, fmt.Errorf("%s %s: all %d attempts failed: %w", method, path, attempts, lastErr)
	}
	return 0, nil, lastErr
}

// send performs a single HTTP exchange.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("%s %s: %w", method, path, ctx.Err())
		}
		return 0, nil, &RetryableError{Err: fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &RetryableError{Err: fmt.Errorf("reading response from %s: %w", path, err)}
	}

	switch status := resp.StatusCode; {
	case status == http.StatusTooManyRequests:
		after := retryAfter(resp.Header, c.now())
		if after > 0 {
			after += c.jitter()
		}
		return 0, nil, &RetryableError{Err: newAPIError(path, status, data), After: after}
	case status >= http.StatusInternalServerError:
		return 0, nil, &RetryableError{Err: newAPIError(path, status, data)}
	case status >= http.StatusBadRequest:
		switch status {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			c.logger.Error("request rejected", "method", method, "path", path, "status", status, "body", string(data))
		}
		return 0, nil, newAPIError(path, status, data)
	}

	c.logger.Debug("request", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, data, nil
}
