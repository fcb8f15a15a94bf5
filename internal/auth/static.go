package auth

import (
	"context"
	"errors"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoValidCredentials = errors.New("no valid credentials available")
	ErrNoConfigPersister  = errors.New("no config persister configured")
)

// StaticTokenManager serves a personal access token. It cannot refresh.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager for a fixed token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	manager := &StaticTokenManager{store: NewTokenStore()}
	manager.store.Set(&Token{AccessToken: token, TokenType: "bearer"})

	return manager
}

// GetToken returns the token.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", ErrNoValidCredentials
	}

	return token.AccessToken, nil
}

// RefreshToken is a no-op: personal access tokens are not refreshable.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return nil
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}
