// Package client wires the retrying HTTP transport and token managers into
// a linode.Client.
package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/linode-client/internal/auth"
	"github.com/fivetwenty-io/linode-client/internal/http"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// Transport implements linode.Transport on top of the HTTP client.
type Transport struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	interceptors *linode.InterceptorChain
}

// createTokenManager creates appropriate token manager based on config.
func createTokenManager(config *linode.Config) auth.TokenManager {
	if config.TokenSource != nil {
		return auth.NewSourceTokenManager(config.TokenSource)
	}

	if config.Token != "" {
		return auth.NewStaticTokenManager(config.Token)
	}

	return nil // No authentication
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *linode.Config) ([]http.Option, error) {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.DisableRetry {
		httpOpts = append(httpOpts, http.WithRetryDisabled())
	} else {
		retryOpts, err := retryOptions(config)
		if err != nil {
			return nil, err
		}

		httpOpts = append(httpOpts, retryOpts...)
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	return httpOpts, nil
}

func retryOptions(config *linode.Config) ([]http.Option, error) {
	var opts []http.Option

	if config.RetryMax > 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		defaults := linode.DefaultConfig()

		retryMax := defaults.RetryMax
		retryWaitMin := defaults.RetryWaitMin
		retryWaitMax := defaults.RetryWaitMax

		if config.RetryMax > 0 {
			retryMax = config.RetryMax
		}

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		opts = append(opts, http.WithRetryConfig(retryMax, retryWaitMin, retryWaitMax))
	}

	if len(config.RetryStatuses) > 0 {
		opts = append(opts, http.WithRetryStatuses(config.RetryStatuses...))
	}

	if config.RetryBackoff != "" {
		err := http.ValidateBackoff(config.RetryBackoff)
		if err != nil {
			return nil, fmt.Errorf("invalid retry config: %w", err)
		}

		opts = append(opts, http.WithBackoff(config.RetryBackoff))
	}

	return opts, nil
}

// New creates a linode.Client for config.
func New(config *linode.Config) (*linode.Client, error) {
	if config == nil {
		return nil, linode.ErrConfigRequired
	}

	return NewWithTokenManager(config, createTokenManager(config))
}

// NewWithTokenManager creates a linode.Client with a custom token manager.
func NewWithTokenManager(config *linode.Config, tokenManager auth.TokenManager) (*linode.Client, error) {
	transport, err := NewTransport(config, tokenManager)
	if err != nil {
		return nil, err
	}

	var opts []linode.Option

	if config.Logger != nil {
		opts = append(opts, linode.WithLogger(config.Logger))
	}

	if config.VolatileRefresh > 0 {
		opts = append(opts, linode.WithVolatileRefresh(config.VolatileRefresh))
	}

	client, err := linode.NewClient(transport, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// NewTransport creates the HTTP transport for config.
func NewTransport(config *linode.Config, tokenManager auth.TokenManager) (*Transport, error) {
	if config == nil {
		return nil, linode.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, linode.ErrAPIEndpointRequired
	}

	httpOpts, err := createHTTPClientOptions(config)
	if err != nil {
		return nil, err
	}

	return &Transport{
		httpClient:   http.NewClient(config.APIEndpoint, tokenManager, httpOpts...),
		tokenManager: tokenManager,
		interceptors: config.Interceptors,
	}, nil
}

// GetTokenManager returns the token manager for this transport.
func (t *Transport) GetTokenManager() auth.TokenManager {
	return t.tokenManager
}

// Do implements linode.Transport. Interceptors see every call, failed ones
// included.
func (t *Transport) Do(ctx context.Context, req *linode.Request) (*linode.Response, error) {
	if req.Metadata == nil {
		req.Metadata = make(map[string]interface{})
	}

	if t.interceptors != nil {
		err := t.interceptors.ExecuteRequestInterceptors(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, callErr := t.httpClient.Do(ctx, toHTTPRequest(req))

	var out *linode.Response
	if callErr == nil && resp != nil {
		out = &linode.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Body:       resp.Body,
		}
	}

	if t.interceptors != nil {
		err := t.interceptors.ExecuteResponseInterceptors(ctx, req, out, callErr)
		if err != nil && callErr == nil {
			return nil, err
		}
	}

	if callErr != nil {
		return nil, callErr
	}

	return out, nil
}

func toHTTPRequest(req *linode.Request) *http.Request {
	httpReq := &http.Request{
		Method: req.Method,
		Path:   req.Path,
		Query:  req.Query,
		Body:   req.Body,
	}

	if len(req.Headers) > 0 {
		httpReq.Headers = make(map[string]string, len(req.Headers))
		for key := range req.Headers {
			httpReq.Headers[key] = req.Headers.Get(key)
		}
	}

	if req.Filter != nil && !req.Filter.IsEmpty() {
		httpReq.Filter = req.Filter
	}

	return httpReq
}
