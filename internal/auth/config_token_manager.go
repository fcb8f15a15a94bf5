package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ConfigPersister saves refreshed credentials, e.g. to the CLI config file.
type ConfigPersister interface {
	UpdateToken(token string, expiresAt time.Time, refreshToken string) error
}

// ConfigTokenManager wraps OAuth2TokenManager and persists every new token.
type ConfigTokenManager struct {
	oauth2Manager   *OAuth2TokenManager
	configPersister ConfigPersister
	mutex           sync.Mutex
	lastToken       string
}

// NewConfigTokenManager creates a new config-persisting token manager.
func NewConfigTokenManager(config *OAuth2Config, configPersister ConfigPersister) *ConfigTokenManager {
	return &ConfigTokenManager{
		oauth2Manager:   NewOAuth2TokenManager(config),
		configPersister: configPersister,
		lastToken:       config.AccessToken,
	}
}

// GetToken returns a valid access token, persisting it when it changed.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	// persist failures do not fail the request; the next call retries
	_ = m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a token refresh and persists the result.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	return m.persistIfChanged()
}

// SetToken manually sets the access token. It is not persisted.
func (m *ConfigTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.oauth2Manager.SetToken(token, expiresAt)
	m.lastToken = token
}

func (m *ConfigTokenManager) persistIfChanged() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	current := m.oauth2Manager.Current()
	if current == nil || current.AccessToken == m.lastToken {
		return nil
	}

	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateToken(current.AccessToken, current.ExpiresAt, current.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	m.lastToken = current.AccessToken

	return nil
}
