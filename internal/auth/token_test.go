package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/fivetwenty-io/linode-client/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    *auth.Token
		expected bool
	}{
		{
			name:     "nil token",
			token:    nil,
			expected: false,
		},
		{
			name:     "empty access token",
			token:    &auth.Token{AccessToken: ""},
			expected: false,
		},
		{
			name:     "valid token without expiry",
			token:    &auth.Token{AccessToken: "test-token"},
			expected: true,
		},
		{
			name:     "valid token with future expiry",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(1 * time.Hour)},
			expected: true,
		},
		{
			name:     "expired token",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(-1 * time.Hour)},
			expected: false,
		},
		{
			name:     "token expiring within buffer",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(15 * time.Second)},
			expected: false,
		},
		{
			name:     "token expiring just outside buffer",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: time.Now().Add(35 * time.Second)},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.Valid())
		})
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()

	t.Run("new store is empty", func(t *testing.T) {
		t.Parallel()

		store := auth.NewTokenStore()
		assert.Nil(t, store.Get())
	})

	t.Run("set, get and clear", func(t *testing.T) {
		t.Parallel()

		store := auth.NewTokenStore()
		store.Set(&auth.Token{AccessToken: "test-token", TokenType: "bearer"})

		retrieved := store.Get()
		require.NotNil(t, retrieved)
		assert.Equal(t, "test-token", retrieved.AccessToken)
		assert.Equal(t, "bearer", retrieved.TokenType)

		store.Clear()
		assert.Nil(t, store.Get())
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		store := auth.NewTokenStore()
		done := make(chan bool)

		for _, value := range []string{"token-1", "token-2"} {
			go func() {
				for range 100 {
					store.Set(&auth.Token{AccessToken: value})
				}

				done <- true
			}()

			go func() {
				for range 100 {
					_ = store.Get()
				}

				done <- true
			}()
		}

		for range 4 {
			<-done
		}

		finalToken := store.Get()
		require.NotNil(t, finalToken)
		assert.Contains(t, []string{"token-1", "token-2"}, finalToken.AccessToken)
	})
}

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticTokenManager("pat-token")

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pat-token", token)

	require.NoError(t, manager.RefreshToken(context.Background()))

	manager.SetToken("other-token", time.Time{})
	token, err = manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "other-token", token)

	empty := auth.NewStaticTokenManager("")
	_, err = empty.GetToken(context.Background())
	require.ErrorIs(t, err, auth.ErrNoValidCredentials)
}
