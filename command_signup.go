package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	Name            string `json:"name" example:"Pepe Rone" doc:"Display name."`
	Email           string `json:"email" example:"pepe.rone@example.com" doc:"Email address, unique per account."`
	Password        string `json:"password" doc:"Cleartext password, hashed before storage."`
	PasswordConfirm string `json:"password_confirm" doc:"Must match password."`
	OnResponse      func(resp *SignupResponse)
}

func (e SignupMessage) Type() string { return "user.signup" }

func (e SignupMessage) Validate() error {
	return goerrors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&e,
			validation.Field(&e.Name, validation.Required),
			validation.Field(&e.Email, validation.Required, is.Email),
			validation.Field(&e.Password, validation.Required, validation.Length(8, 100)),
			validation.Field(&e.PasswordConfirm, validation.Required, validation.By(ValidateStringEquals(e.Password))),
		)
	}, "invalid signup payload")
}

type SignupResponse struct {
	User  *User
	Token string
}

type SignupHandler struct {
	repo   RepositoryManager
	auther Authenticator
	hasher PasswordAuthenticator
	logger Logger
}

// NewSignupHandler creates a handler with sane defaults.
func NewSignupHandler(repo RepositoryManager, auther Authenticator) *SignupHandler {
	return &SignupHandler{
		repo:   repo,
		auther: auther,
		hasher: defaultHasher,
		logger: defLogger{},
	}
}

// WithPasswordAuthenticator overrides the hasher used for the new password.
func (h *SignupHandler) WithPasswordAuthenticator(hasher PasswordAuthenticator) *SignupHandler {
	if hasher != nil {
		h.hasher = hasher
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SignupHandler) WithLogger(logger Logger) *SignupHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	if err := event.Validate(); err != nil {
		return err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Name = event.Name
		user.Email = event.Email
		// Role is never taken from the payload. Privileged roles are
		// assigned through an admin flow, not self registration.
		user.Role = RoleUser

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	token, err := h.auther.TokenService().Generate(identityFromUser(user))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate signup token")
	}

	if event.OnResponse != nil {
		event.OnResponse(&SignupResponse{
			User:  user,
			Token: token,
		})
	}

	return nil
}

// ValidateStringEquals builds an ozzo rule that requires the value to match
// the given string, used for password confirmation.
func ValidateStringEquals(expected string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != expected {
			return goerrors.New("passwords do not match", goerrors.CategoryValidation)
		}
		return nil
	}
}
