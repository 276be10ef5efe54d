package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/velaro-dev/go-accounts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_ResetTokenLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	user := testUser()

	assert.False(t, user.HasActiveResetToken(now))

	user.SetResetToken("tok-1", now.Add(time.Hour))
	require.NotNil(t, user.ResetPasswordToken)
	require.NotNil(t, user.ResetPasswordExpires)
	assert.True(t, user.HasActiveResetToken(now))

	t.Run("expired token is not active", func(t *testing.T) {
		assert.False(t, user.HasActiveResetToken(now.Add(2*time.Hour)))
	})

	t.Run("clearing removes both fields", func(t *testing.T) {
		user.ClearResetToken()
		assert.Nil(t, user.ResetPasswordToken)
		assert.Nil(t, user.ResetPasswordExpires)
		assert.False(t, user.HasActiveResetToken(now))
	})
}

func TestUser_EnsureProvider(t *testing.T) {
	user := &accounts.User{}
	user.EnsureProvider()
	assert.Equal(t, accounts.ProviderLocal, user.Provider)

	user.Provider = "github"
	user.EnsureProvider()
	assert.Equal(t, "github", user.Provider)
}
