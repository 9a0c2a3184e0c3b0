package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UpdatePasswordMessage struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"password_current" doc:"Current cleartext password."`
	Password        string `json:"password" doc:"New cleartext password."`
	PasswordConfirm string `json:"password_confirm" doc:"Must match the new password."`
	OnResponse      func(resp *UpdatePasswordResponse)
}

func (e UpdatePasswordMessage) Type() string { return "user.password_update" }

func (e UpdatePasswordMessage) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.CurrentPassword, validation.Required),
			validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
			validation.Field(&e.PasswordConfirm, validation.Required, validation.By(ValidateStringEquals(e.Password))),
		)
	}, "invalid password update payload")
}

type UpdatePasswordResponse struct {
	User  *User
	Token string
}

type UpdatePasswordHandler struct {
	repo   RepositoryManager
	auther Authenticator
	hasher PasswordAuthenticator
	logger Logger
}

// NewUpdatePasswordHandler creates a handler with sane defaults.
func NewUpdatePasswordHandler(repo RepositoryManager, auther Authenticator) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{
		repo:   repo,
		auther: auther,
		hasher: defaultHasher,
		logger: defLogger{},
	}
}

// WithPasswordAuthenticator overrides the hasher used by the handler.
func (h *UpdatePasswordHandler) WithPasswordAuthenticator(hasher PasswordAuthenticator) *UpdatePasswordHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdatePasswordHandler) WithLogger(logger Logger) *UpdatePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// load with the hash, the regular projection excludes it
		user, err = h.repo.Users().GetByID(ctx, event.UserID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrUserGone
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password update")
		}

		if err := h.hasher.ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
			return ErrCurrentPasswordWrong
		}

		hash, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		changedAt := time.Now()
		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, hash, changedAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		user.PasswordChangedAt = &changedAt
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password update transaction failed")
	}

	// A fresh token so the caller stays logged in, the old one is now
	// rejected by the password change check.
	token, err := h.auther.TokenService().Generate(identityFromUser(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token after password update")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdatePasswordResponse{
			User:  user,
			Token: token,
		})
	}

	return nil
}
