package linode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivetwenty-io/linode-client/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
)

// Request is a single API call as seen by a Transport. Path is relative to
// the configured endpoint and already has identity fields interpolated.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Filter  *Filter
	Headers http.Header

	// Metadata carries values between request and response interceptors.
	Metadata map[string]interface{}
}

// Response is what a Transport returns for a 2xx answer. Body is nil when
// the server sent no content.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport sends requests to the API. Implementations return *APIError for
// error statuses and apply authentication and retries themselves.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// Config represents client configuration.
//
// # Authentication
//
// Token is sent as a static bearer token. TokenSource, when set, takes
// precedence and is consulted before every request so OAuth tokens can be
// refreshed transparently. With neither, requests are unauthenticated.
//
// # Retries
//
// Retries are enabled unless DisableRetry is set. A response whose status is
// in RetryStatuses (default 408 and 429) is retried up to RetryMax times.
// The delay is taken from the Retry-After header when present, otherwise it
// is RetryWaitMin (RetryBackoff "constant") or doubles from RetryWaitMin
// (RetryBackoff "exponential"). Every delay is capped at RetryWaitMax. When
// the budget is spent the last error response is returned as *APIError.
type Config struct {
	// APIEndpoint: base URL, e.g. "https://api.linode.com/v4".
	APIEndpoint string
	// Token: personal access token or OAuth access token.
	Token string
	// TokenSource: optional OAuth2 token source; overrides Token.
	TokenSource oauth2.TokenSource
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// HTTPTimeout: timeout of the underlying http.Client.
	HTTPTimeout time.Duration

	// DisableRetry turns the retry policy off entirely.
	DisableRetry bool
	// RetryMax: maximum retries after the first attempt. 0 means the default.
	RetryMax int
	// RetryWaitMin: fixed (or initial) delay between attempts.
	RetryWaitMin time.Duration
	// RetryWaitMax: upper bound for any delay, including Retry-After.
	RetryWaitMax time.Duration
	// RetryStatuses: statuses that trigger a retry. Empty means 408 and 429.
	RetryStatuses []int
	// RetryBackoff: "constant" (default) or "exponential".
	RetryBackoff string

	// RateLimit: client-side requests per second; 0 disables throttling.
	RateLimit float64
	// RateBurst: burst size for RateLimit.
	RateBurst int

	// Debug: enables verbose HTTP request/response logging.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// Interceptors: optional request/response hooks run around every call.
	Interceptors *InterceptorChain

	// VolatileRefresh: how long volatile attributes stay fresh. 0 means 15s.
	VolatileRefresh time.Duration
}

// DefaultConfig returns a Config filled with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		APIEndpoint: constants.DefaultAPIEndpoint,
		UserAgent:   constants.DefaultUserAgent,
		HTTPTimeout: constants.DefaultHTTPTimeout,
		RetryMax:    constants.DefaultRetryMax,

		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
		RetryStatuses: []int{
			constants.HTTPStatusRequestTimeout,
			constants.HTTPStatusTooManyRequests,
		},
		RetryBackoff:    constants.RetryBackoffConstant,
		VolatileRefresh: constants.DefaultVolatileRefresh,
	}
}

// Client is the entry point of the resource model. It owns the transport and
// the schema registry; resources and lists keep a pointer back to it.
type Client struct {
	transport       Transport
	logger          Logger
	registry        *Registry
	volatileRefresh time.Duration
	now             func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used by the resource model.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVolatileRefresh sets how long volatile attributes stay fresh.
func WithVolatileRefresh(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.volatileRefresh = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithRegistry replaces the built-in schema registry.
func WithRegistry(registry *Registry) Option {
	return func(c *Client) {
		c.registry = registry
	}
}

// NewClient creates a resource-model client on top of a transport. Most
// callers should use lnclient.New, which builds the HTTP transport.
func NewClient(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportRequired
	}

	client := &Client{
		transport:       transport,
		logger:          nopLogger{},
		volatileRefresh: constants.DefaultVolatileRefresh,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.registry == nil {
		client.registry = DefaultRegistry()
	}

	return client, nil
}

// Registry returns the schema registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// Transport returns the underlying transport.
func (c *Client) Transport() Transport {
	return c.transport
}

// Get performs a raw GET and returns the decoded JSON object.
func (c *Client) Get(ctx context.Context, path string, filter *Filter) (map[string]json.RawMessage, error) {
	return c.call(ctx, &Request{Method: http.MethodGet, Path: path, Filter: filter})
}

// Post performs a raw POST and returns the decoded JSON object.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (map[string]json.RawMessage, error) {
	return c.call(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a raw PUT and returns the decoded JSON object.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (map[string]json.RawMessage, error) {
	return c.call(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Delete performs a raw DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.call(ctx, &Request{Method: http.MethodDelete, Path: path})

	return err
}

// call sends the request and decodes a JSON object body. An empty body
// yields a nil map and no error.
func (c *Client) call(ctx context.Context, req *Request) (map[string]json.RawMessage, error) {
	if req.Filter != nil && req.Filter.Err() != nil {
		return nil, req.Filter.Err()
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	return decodeObject(resp)
}

func decodeObject(resp *Response) (map[string]json.RawMessage, error) {
	if resp == nil || len(resp.Body) == 0 {
		return nil, nil
	}

	var object map[string]json.RawMessage

	err := json.Unmarshal(resp.Body, &object)
	if err != nil {
		return nil, &UnexpectedResponseError{
			Message:    fmt.Sprintf("body is not a JSON object: %v", err),
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	return object, nil
}
