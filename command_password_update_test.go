package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/tours-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdatePasswordHandler(t *testing.T) {
	hasher := auth.NewPasswordHasher(4)
	currentHash, err := hasher.HashPassword("current-pass")
	require.NoError(t, err)

	userID := uuid.New()
	makeUser := func() *auth.User {
		return &auth.User{
			ID:           userID,
			Email:        "pepe.rone@example.com",
			Role:         auth.RoleUser,
			PasswordHash: currentHash,
		}
	}

	t.Run("rotates password and returns fresh token", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)
		auther := newTestAuther(users)

		users.On("GetByID", mock.Anything, userID.String()).Return(makeUser(), nil)

		var storedHash string
		users.On("ResetPasswordTx", mock.Anything, userID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) {
				storedHash = args.Get(2).(string)
			}).
			Return(nil)

		var resp *auth.UpdatePasswordResponse
		msg := auth.UpdatePasswordMessage{
			UserID:          userID.String(),
			CurrentPassword: "current-pass",
			Password:        "new-password-1",
			PasswordConfirm: "new-password-1",
			OnResponse:      func(r *auth.UpdatePasswordResponse) { resp = r },
		}

		handler := auth.NewUpdatePasswordHandler(repo, auther).WithPasswordAuthenticator(hasher)
		err := handler.Execute(context.Background(), msg)
		require.NoError(t, err)

		assert.NoError(t, hasher.ComparePasswordAndHash("new-password-1", storedHash))

		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.User.PasswordChangedAt)

		users.AssertExpectations(t)
	})

	t.Run("wrong current password", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)

		users.On("GetByID", mock.Anything, userID.String()).Return(makeUser(), nil)

		msg := auth.UpdatePasswordMessage{
			UserID:          userID.String(),
			CurrentPassword: "not-the-password",
			Password:        "new-password-1",
			PasswordConfirm: "new-password-1",
		}

		handler := auth.NewUpdatePasswordHandler(repo, newTestAuther(users)).WithPasswordAuthenticator(hasher)
		err := handler.Execute(context.Background(), msg)
		assert.ErrorIs(t, err, auth.ErrCurrentPasswordWrong)

		users.AssertNotCalled(t, "ResetPasswordTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing current password fails validation", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)

		msg := auth.UpdatePasswordMessage{
			UserID:          userID.String(),
			Password:        "new-password-1",
			PasswordConfirm: "new-password-1",
		}

		handler := auth.NewUpdatePasswordHandler(repo, newTestAuther(users))
		err := handler.Execute(context.Background(), msg)
		require.Error(t, err)

		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("deleted user", func(t *testing.T) {
		users := new(MockUsers)
		repo := NewMockRepositoryManager(users)

		users.On("GetByID", mock.Anything, userID.String()).
			Return(nil, auth.ErrIdentityNotFound)

		msg := auth.UpdatePasswordMessage{
			UserID:          userID.String(),
			CurrentPassword: "current-pass",
			Password:        "new-password-1",
			PasswordConfirm: "new-password-1",
		}

		handler := auth.NewUpdatePasswordHandler(repo, newTestAuther(users)).WithPasswordAuthenticator(hasher)
		err := handler.Execute(context.Background(), msg)
		assert.ErrorIs(t, err, auth.ErrUserGone)
	})
}
