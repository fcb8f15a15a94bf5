package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/fivetwenty-io/linode-client/internal/constants"
)

// LinodeLoginURL is the base URL of the Linode OAuth server.
const LinodeLoginURL = "https://login.linode.com"

// OAuth2Config holds the credentials an OAuth2TokenManager may use. The
// grant is chosen in this order: refresh token, password, client
// credentials.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	AccessToken  string
	Scopes       []string
}

// OAuth2TokenManager obtains and refreshes tokens from an OAuth2 server.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	mu     sync.Mutex
}

// NewOAuth2TokenManager creates a manager. An AccessToken in config is used
// until it expires.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "bearer",
		})
	}

	return manager
}

// NewLinodeTokenManager creates a manager refreshing tokens against the
// Linode login service.
func NewLinodeTokenManager(loginURL, clientID, clientSecret, refreshToken string, scopes ...string) *OAuth2TokenManager {
	if loginURL == "" {
		loginURL = LinodeLoginURL
	}

	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(loginURL, "/") + "/oauth/token",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
		Scopes:       scopes,
	})
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken fetches a new token regardless of the current one.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	// Token exchanges get a short timeout unless the caller supplied a client.
	if _, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); !ok {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: constants.ShortHTTPTimeout})
	}

	oauthConfig := &oauth2.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: m.config.Scopes,
	}

	var (
		token *oauth2.Token
		err   error
	)

	switch {
	case refreshToken != "":
		source := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)})
		token, err = source.Token()
	case m.config.Username != "":
		token, err = oauthConfig.PasswordCredentialsToken(ctx, m.config.Username, m.config.Password)
	case m.config.ClientID != "":
		credentials := &clientcredentials.Config{
			ClientID:     m.config.ClientID,
			ClientSecret: m.config.ClientSecret,
			TokenURL:     m.config.TokenURL,
			Scopes:       m.config.Scopes,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		token, err = credentials.Token(ctx)
	default:
		return ErrNoValidCredentials
	}

	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}

	stored := fromOAuth2(token)
	if stored.RefreshToken == "" {
		stored.RefreshToken = refreshToken
	}

	m.store.Set(stored)

	return nil
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  token,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
	})
}

// Current returns the stored token, or nil.
func (m *OAuth2TokenManager) Current() *Token {
	return m.store.Get()
}

// SourceTokenManager adapts an oauth2.TokenSource.
type SourceTokenManager struct {
	source oauth2.TokenSource
	store  *TokenStore
}

// NewSourceTokenManager wraps source. Tokens are reused until they expire.
func NewSourceTokenManager(source oauth2.TokenSource) *SourceTokenManager {
	return &SourceTokenManager{
		source: source,
		store:  NewTokenStore(),
	}
}

// GetToken returns a valid access token from the source.
func (m *SourceTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken asks the source for a token.
func (m *SourceTokenManager) RefreshToken(ctx context.Context) error {
	token, err := m.source.Token()
	if err != nil {
		return fmt.Errorf("token source: %w", err)
	}

	m.store.Set(fromOAuth2(token))

	return nil
}

// SetToken overrides the source until expiresAt.
func (m *SourceTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}
