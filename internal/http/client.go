// Package http is the retrying transport of the client. Retries are driven
// by go-retryablehttp; delays come from Retry-After when the server sends
// it, otherwise from a backoff policy.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/linode-client/internal/auth"
	"github.com/fivetwenty-io/linode-client/internal/constants"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// Static errors for err113 compliance.
var (
	ErrUnknownBackoff = errors.New("unknown backoff strategy")
)

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
	// Filter is JSON-encoded into the X-Filter header when non-nil.
	Filter interface{}
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Client is an HTTP client with retry, rate limiting and bearer auth.
type Client struct {
	baseURL       string
	httpClient    *retryablehttp.Client
	tokenManager  auth.TokenManager
	logger        linode.Logger
	userAgent     string
	debug         bool
	retryDisabled bool
	retryStatuses map[int]struct{}
	backoff       string
	limiter       *rate.Limiter
	clock         func() time.Time
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger linode.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig sets the retry budget and delay bounds.
func WithRetryConfig(retryMax int, retryWaitMin, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = retryWaitMin
		c.httpClient.RetryWaitMax = retryWaitMax
	}
}

// WithRetryStatuses replaces the statuses that trigger a retry.
func WithRetryStatuses(statuses ...int) Option {
	return func(c *Client) {
		if len(statuses) == 0 {
			return
		}

		c.retryStatuses = make(map[int]struct{}, len(statuses))
		for _, status := range statuses {
			c.retryStatuses[status] = struct{}{}
		}
	}
}

// WithRetryDisabled turns retries off.
func WithRetryDisabled() Option {
	return func(c *Client) {
		c.retryDisabled = true
	}
}

// WithBackoff selects constants.RetryBackoffConstant (the default) or
// constants.RetryBackoffExponential.
func WithBackoff(strategy string) Option {
	return func(c *Client) {
		if strategy != "" {
			c.backoff = strategy
		}
	}
}

// WithRateLimit throttles outgoing requests, retries included.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithHTTPTimeout sets the per-attempt timeout.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithClock replaces time.Now for Retry-After date handling.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.clock = now
	}
}

// NewClient creates a new HTTP client.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		userAgent:    constants.DefaultUserAgent,
		retryStatuses: map[int]struct{}{
			constants.HTTPStatusRequestTimeout:  {},
			constants.HTTPStatusTooManyRequests: {},
		},
		backoff: constants.RetryBackoffConstant,
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.retryDisabled {
		retryClient.RetryMax = 0
	}

	retryClient.CheckRetry = client.checkRetry
	retryClient.Backoff = client.backoffDelay
	retryClient.RequestLogHook = client.logAttempt
	retryClient.Logger = nil

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	if client.limiter != nil {
		retryClient.HTTPClient.Transport = &rateLimitedTransport{
			base:    retryClient.HTTPClient.Transport,
			limiter: client.limiter,
		}
	}

	return client
}

// checkRetry retries configured statuses only. Connection errors and
// context cancellation are returned as-is.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	if err != nil {
		return false, err
	}

	if c.retryDisabled || resp == nil {
		return false, nil
	}

	_, retry := c.retryStatuses[resp.StatusCode]

	return retry, nil
}

// backoffDelay honours Retry-After, then the configured policy. Every delay
// is capped at waitMax.
func (c *Client) backoffDelay(waitMin, waitMax time.Duration, attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if delay, ok := parseRetryAfter(resp.Header.Get(constants.HeaderRetryAfter), c.clock()); ok {
			return capDelay(delay, waitMax)
		}
	}

	var policy backoff.BackOff

	switch c.backoff {
	case constants.RetryBackoffExponential:
		exponential := backoff.NewExponentialBackOff()
		exponential.InitialInterval = waitMin
		exponential.MaxInterval = waitMax
		exponential.Multiplier = 2
		exponential.RandomizationFactor = 0
		exponential.MaxElapsedTime = 0
		exponential.Reset()

		for range attempt {
			exponential.NextBackOff()
		}

		policy = exponential
	default:
		policy = backoff.NewConstantBackOff(waitMin)
	}

	return capDelay(policy.NextBackOff(), waitMax)
}

func capDelay(delay, waitMax time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}

	if waitMax > 0 && delay > waitMax {
		return waitMax
	}

	return delay
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second, true
	}

	if date, err := http.ParseTime(value); err == nil {
		return date.Sub(now), true
	}

	return 0, false
}

func (c *Client) logAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 || c.logger == nil {
		return
	}

	c.logger.Warn("Retrying request", map[string]interface{}{
		"method":  req.Method,
		"url":     req.URL.String(),
		"attempt": attempt,
	})
}

// Do performs an HTTP request. A status in [400, 599] returns both the
// response and a *linode.APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body []byte

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		body = encoded
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	err = c.setHeaders(ctx, httpReq, req, body != nil)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		fields := map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		}
		if filter := httpReq.Header.Get(constants.HeaderFilter); filter != "" {
			fields["filter"] = filter
		}

		c.logger.Debug("HTTP Request", fields)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    fullURL,
			"bytes":  len(respBody),
		})
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
	}

	if resp.StatusCode >= constants.HTTPStatusBadRequest && resp.StatusCode <= constants.HTTPStatusMaxError {
		return response, linode.NewAPIError(resp.StatusCode, resp.Header, respBody)
	}

	return response, nil
}

func (c *Client) setHeaders(ctx context.Context, httpReq *retryablehttp.Request, req *Request, hasBody bool) error {
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if hasBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to get token: %w", err)
		}

		httpReq.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Filter != nil {
		filter, err := json.Marshal(req.Filter)
		if err != nil {
			return fmt.Errorf("failed to encode filter: %w", err)
		}

		if !bytes.Equal(filter, []byte("{}")) && !bytes.Equal(filter, []byte("null")) {
			httpReq.Header.Set(constants.HeaderFilter, string(filter))
		}
	}

	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// ValidateBackoff reports whether strategy names a known policy.
func ValidateBackoff(strategy string) error {
	switch strategy {
	case "", constants.RetryBackoffConstant, constants.RetryBackoffExponential:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackoff, strategy)
	}
}
