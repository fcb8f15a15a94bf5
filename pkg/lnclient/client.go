package lnclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/linode-client/internal/auth"
	"github.com/fivetwenty-io/linode-client/internal/client"
	"github.com/fivetwenty-io/linode-client/internal/constants"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// New creates a new Linode API client. The config is copied; the endpoint
// defaults to the public API and gains an https:// scheme when it has none.
func New(ctx context.Context, config *linode.Config) (*linode.Client, error) {
	if config == nil {
		return nil, linode.ErrConfigRequired
	}

	normalized := *config
	normalized.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	if normalized.Logger == nil {
		normalized.Logger = contextLogger(ctx)
	}

	cli, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}

// NormalizeEndpoint trims trailing slashes and defaults the scheme.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return constants.DefaultAPIEndpoint
	}

	endpoint = strings.TrimRight(endpoint, "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

func contextLogger(ctx context.Context) linode.Logger {
	logger := zerolog.Ctx(ctx)
	if logger == nil || logger.GetLevel() == zerolog.Disabled {
		return nil
	}

	return NewZerologLogger(*logger)
}

// NewWithEndpoint creates a new client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (*linode.Client, error) {
	return New(ctx, &linode.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a new client with an API endpoint and a personal
// access token. An empty endpoint means the public API.
func NewWithToken(ctx context.Context, endpoint, token string) (*linode.Client, error) {
	return New(ctx, &linode.Config{
		APIEndpoint: endpoint,
		Token:       token,
	})
}

// NewWithRefreshToken creates a new client authenticated through an OAuth
// app. The first access token is exchanged before returning, so bad
// credentials fail here instead of on the first request.
func NewWithRefreshToken(ctx context.Context, endpoint, clientID, clientSecret, refreshToken string) (*linode.Client, error) {
	tokenManager := auth.NewLinodeTokenManager(auth.LinodeLoginURL, clientID, clientSecret, refreshToken)

	_, err := tokenManager.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchanging refresh token: %w", err)
	}

	config := &linode.Config{
		APIEndpoint: NormalizeEndpoint(endpoint),
		Logger:      contextLogger(ctx),
	}

	cli, err := client.NewWithTokenManager(config, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return cli, nil
}
