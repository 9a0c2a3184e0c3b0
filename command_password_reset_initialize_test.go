package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	auth "github.com/goliatone/tours-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInitializePasswordResetHandler(t *testing.T) {
	userID := uuid.New()
	user := &auth.User{
		ID:    userID,
		Email: "pepe.rone@example.com",
		Role:  auth.RoleUser,
	}

	t.Run("stores digest and emails raw token", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)
		mailer := new(MockMailer)

		users.On("GetByEmail", mock.Anything, "pepe.rone@example.com").Return(user, nil)

		var storedDigest string
		users.On("SetResetTokenTx", mock.Anything, userID, mock.AnythingOfType("string"), mock.MatchedBy(func(expiry time.Time) bool {
			return time.Until(expiry) > 9*time.Minute && time.Until(expiry) <= 10*time.Minute
		})).
			Run(func(args mock.Arguments) {
				storedDigest = args.Get(2).(string)
			}).
			Return(nil)

		var emailBody string
		mailer.On("Send", mock.Anything, "pepe.rone@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) {
				emailBody = args.Get(3).(string)
			}).
			Return(nil)

		var resp *auth.InitializePasswordResetResponse
		msg := auth.InitializePasswordResetMessage{
			Email:      "pepe.rone@example.com",
			OnResponse: func(r *auth.InitializePasswordResetResponse) { resp = r },
		}

		handler := auth.NewInitializePasswordResetHandler(repo, mailer, newTestConfig())
		err := handler.Execute(context.Background(), msg)
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.True(t, resp.Success)

		// the mail carries the raw token, the store only ever sees the digest
		assert.Len(t, storedDigest, 64)
		assert.NotContains(t, emailBody, storedDigest)

		rawToken := extractResetToken(t, emailBody)
		assert.Equal(t, storedDigest, auth.HashResetToken(rawToken))

		users.AssertExpectations(t)
		mailer.AssertExpectations(t)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)
		mailer := new(MockMailer)

		users.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound())

		msg := auth.InitializePasswordResetMessage{Email: "ghost@example.com"}

		handler := auth.NewInitializePasswordResetHandler(repo, mailer, newTestConfig())
		err := handler.Execute(context.Background(), msg)
		require.Error(t, err)

		var richErr *goerrors.Error
		require.ErrorAs(t, err, &richErr)
		assert.Equal(t, goerrors.CategoryNotFound, richErr.Category)

		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mail failure propagates so the transaction rolls back", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)
		mailer := new(MockMailer)

		users.On("GetByEmail", mock.Anything, "pepe.rone@example.com").Return(user, nil)
		users.On("SetResetTokenTx", mock.Anything, userID, mock.Anything, mock.Anything).Return(nil)
		mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(goerrors.New("smtp unavailable", goerrors.CategoryExternal))

		msg := auth.InitializePasswordResetMessage{Email: "pepe.rone@example.com"}

		handler := auth.NewInitializePasswordResetHandler(repo, mailer, newTestConfig())
		err := handler.Execute(context.Background(), msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error sending the email")
	})

	t.Run("invalid email fails validation", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)
		mailer := new(MockMailer)

		msg := auth.InitializePasswordResetMessage{Email: "not-an-email"}

		handler := auth.NewInitializePasswordResetHandler(repo, mailer, newTestConfig())
		err := handler.Execute(context.Background(), msg)
		require.Error(t, err)

		users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})
}

// extractResetToken pulls the 64 char hex token out of the reset email body.
func extractResetToken(t *testing.T, body string) string {
	t.Helper()
	for _, field := range strings.Fields(body) {
		field = strings.TrimSuffix(field, ".")
		if idx := strings.LastIndex(field, "/"); idx >= 0 {
			candidate := field[idx+1:]
			if len(candidate) == 64 {
				return candidate
			}
		}
	}
	t.Fatal("no reset token found in email body")
	return ""
}
