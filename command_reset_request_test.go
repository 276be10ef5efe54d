package accounts_test

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	accounts "github.com/velaro-dev/go-accounts"

	"github.com/goliatone/go-repository-bun"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) accounts.Clock {
	return accounts.ClockFunc(func() time.Time { return at })
}

func isResetToken(token string) bool {
	raw, err := hex.DecodeString(token)
	return err == nil && len(raw) >= 20
}

func TestRequestPasswordResetHandler(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	t.Run("stores a fresh token with a one hour expiry", func(t *testing.T) {
		user := testUser()
		var storedToken string

		users := &MockUsers{}
		users.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil).Once()
		users.On("SetResetToken", mock.Anything, user.ID,
			mock.MatchedBy(isResetToken), now.Add(time.Hour)).
			Run(func(args mock.Arguments) {
				storedToken = args.String(2)
			}).
			Return(user, nil).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		mailer := &MockMailer{}
		mailer.On("Send", mock.Anything, mock.MatchedBy(func(msg accounts.MailMessage) bool {
			return msg.To == user.Email && strings.Contains(msg.Body, storedToken)
		})).Return(nil).Once()

		var res *accounts.RequestPasswordResetResponse

		handler := accounts.NewRequestPasswordResetHandler(repo).
			WithMailer(mailer).
			WithLogger(testLogger{}).
			WithClock(fixedClock(now))

		err := handler.Execute(ctx, accounts.RequestPasswordResetMessage{
			Identifier: user.Email,
			ResetURL:   "https://app.example.com/password-reset",
			OnResponse: func(resp *accounts.RequestPasswordResetResponse) {
				res = resp
			},
		})

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.Success)
		users.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})

	t.Run("unknown identifier reports identity not found", func(t *testing.T) {
		users := &MockUsers{}
		users.On("GetByIdentifier", mock.Anything, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		handler := accounts.NewRequestPasswordResetHandler(repo).
			WithLogger(testLogger{}).
			WithClock(fixedClock(now))

		err := handler.Execute(ctx, accounts.RequestPasswordResetMessage{
			Identifier: "ghost@example.com",
		})

		require.ErrorIs(t, err, accounts.ErrIdentityNotFound)
		users.AssertNotCalled(t, "SetResetToken",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure is swallowed once the token persisted", func(t *testing.T) {
		user := testUser()

		users := &MockUsers{}
		users.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil).Once()
		users.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).
			Return(user, nil).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		mailer := &MockMailer{}
		mailer.On("Send", mock.Anything, mock.Anything).
			Return(errors.New("smtp connection refused")).Once()

		handler := accounts.NewRequestPasswordResetHandler(repo).
			WithMailer(mailer).
			WithLogger(testLogger{}).
			WithClock(fixedClock(now))

		err := handler.Execute(ctx, accounts.RequestPasswordResetMessage{
			Identifier: user.Email,
		})

		require.NoError(t, err)
		mailer.AssertExpectations(t)
	})

	t.Run("store failure surfaces before any mail goes out", func(t *testing.T) {
		user := testUser()

		users := &MockUsers{}
		users.On("GetByIdentifier", mock.Anything, user.Email).Return(user, nil).Once()
		users.On("SetResetToken", mock.Anything, user.ID, mock.Anything, mock.Anything).
			Return(nil, errors.New("db unavailable")).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		mailer := &MockMailer{}

		handler := accounts.NewRequestPasswordResetHandler(repo).
			WithMailer(mailer).
			WithLogger(testLogger{}).
			WithClock(fixedClock(now))

		err := handler.Execute(ctx, accounts.RequestPasswordResetMessage{
			Identifier: user.Email,
		})

		require.Error(t, err)
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("cancelled context aborts before any work", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		repo := &MockRepositoryManager{}

		handler := accounts.NewRequestPasswordResetHandler(repo).
			WithLogger(testLogger{})

		err := handler.Execute(cancelled, accounts.RequestPasswordResetMessage{
			Identifier: "pepe@example.com",
		})

		require.Error(t, err)
		repo.AssertNotCalled(t, "Users")
	})
}

func TestGenerateResetToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		token, err := accounts.GenerateResetToken()
		require.NoError(t, err)
		assert.True(t, isResetToken(token))
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
