package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token           string `json:"-" doc:"Raw reset token from the emailed link."`
	Password        string `json:"password" doc:"New cleartext password."`
	PasswordConfirm string `json:"password_confirm" doc:"Must match the new password."`
	OnResponse      func(resp *FinalizePasswordResetResponse)
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Token, validation.Required),
			validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
			validation.Field(&e.PasswordConfirm, validation.Required, validation.By(ValidateStringEquals(e.Password))),
		)
	}, "invalid password reset payload")
}

type FinalizePasswordResetResponse struct {
	User  *User
	Token string
}

type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	auther Authenticator
	hasher PasswordAuthenticator
	logger Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager, auther Authenticator) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		auther: auther,
		hasher: defaultHasher,
		logger: defLogger{},
	}
}

// WithPasswordAuthenticator overrides the hasher used by the handler.
func (h *FinalizePasswordResetHandler) WithPasswordAuthenticator(hasher PasswordAuthenticator) *FinalizePasswordResetHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	digest := HashResetToken(event.Token)

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// the lookup enforces expiry, a stale or already used token
		// simply does not match
		user, err = h.repo.Users().GetByResetTokenHashTx(ctx, tx, digest)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrResetTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
		}

		passwordHash, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		changedAt := time.Now()
		if err := h.repo.Users().ResetPasswordTx(ctx, tx, user.ID, passwordHash, changedAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		user.PasswordChangedAt = &changedAt
		user.PasswordResetTokenHash = ""
		user.PasswordResetExpiry = nil
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	token, err := h.auther.TokenService().Generate(identityFromUser(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate token after password reset")
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{
			User:  user,
			Token: token,
		})
	}

	return nil
}
