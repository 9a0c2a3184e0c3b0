package auth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/tours-auth/middleware/jwtware"

	repository "github.com/goliatone/go-repository-bun"
)

// PrincipalContextKey is the router locals key under which the protect
// middleware stores the loaded *User.
const PrincipalContextKey = "current_user"

// ValidationListener aliases the jwtware listener so consumers can use auth helpers directly.
type ValidationListener = jwtware.ValidationListener

// RouteAuthenticator wires the token middleware, the principal lookup, and
// the role guard for HTTP routes.
type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	users            Users
	validators       []TokenValidator
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config, users Users) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		users:  users,
		Logger: defLogger{},
	}

	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// WithTokenValidators appends fallback validators consulted when the primary
// token service rejects a signature. Register the outgoing key's validator
// here while rotating signing keys.
func (a *RouteAuthenticator) WithTokenValidators(validators ...TokenValidator) *RouteAuthenticator {
	a.validators = append(a.validators, validators...)
	return a
}

func (a *RouteAuthenticator) tokenValidator() TokenValidator {
	if len(a.validators) == 0 {
		return a.auth.TokenService()
	}
	chain := MultiTokenValidator{a.auth.TokenService()}
	return append(chain, a.validators...)
}

// ProtectedRoute returns the middleware guarding authenticated routes. It
// validates the bearer token, loads the current user, and rejects tokens
// issued before the user's last password change.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return jwtware.New(jwtware.Config{
			ErrorHandler: a.AuthErrorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(a.cfg.GetSigningKey()),
				JWTAlg: a.cfg.GetSigningMethod(),
			},
			AuthScheme:     a.cfg.GetAuthScheme(),
			ContextKey:     a.cfg.GetContextKey(),
			TokenLookup:    a.cfg.GetTokenLookup(),
			TokenValidator: tokenValidatorAdapter{svc: a.tokenValidator()},
			ValidationListeners: []ValidationListener{
				a.loadPrincipal,
			},
			ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
				if authClaims, ok := claims.(AuthClaims); ok {
					return WithClaimsContext(c, authClaims)
				}
				return c
			},
		})(hf)
	}
}

// loadPrincipal resolves the token subject to a live user and stashes it in
// the router context. Deleted users and stale tokens fail here, not in the
// handlers.
func (a *RouteAuthenticator) loadPrincipal(ctx router.Context, claims jwtware.AuthClaims) error {
	user, err := a.users.GetByID(ctx.Context(), claims.Subject())
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
			return ErrUserGone
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to load user for token subject")
	}

	if user.ChangedPasswordAfter(claims.IssuedAt()) {
		return ErrPasswordChanged
	}

	ctx.Locals(PrincipalContextKey, user)
	ctx.SetContext(WithContext(ctx.Context(), user))

	return nil
}

// RequireRoles returns a middleware that allows only principals whose role is
// in the given set. It must run after ProtectedRoute.
func (a *RouteAuthenticator) RequireRoles(roles ...UserRole) router.MiddlewareFunc {
	allowed := make(map[UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, ok := CurrentUser(ctx)
			if !ok {
				// no principal means the protect middleware did not run,
				// fail closed
				return WriteError(ctx, ErrNotLoggedIn)
			}

			if _, ok := allowed[user.Role]; !ok {
				return WriteError(ctx, ErrPermissionDenied)
			}

			return hf(ctx)
		}
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error

	if err.Error() == jwtware.ErrJWTMissingOrMalformed.Error() {
		richErr = ErrNotLoggedIn
	} else if IsTokenExpiredError(err) {
		richErr = ErrTokenExpired
	} else if IsMalformedError(err) {
		richErr = ErrTokenMalformed
	} else if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "invalid authentication token").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error: %s text_code=%s path=%s",
		richErr.Message,
		richErr.TextCode,
		c.OriginalURL(),
	)

	return WriteError(c, richErr)
}

// WriteError renders an error as the JSON envelope used across the API.
// Client errors get status "fail", server errors get status "error".
func WriteError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "an unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	code := richErr.Code
	if code == 0 {
		code = errors.CodeInternal
	}

	status := "error"
	if code < 500 {
		status = "fail"
	}

	body := map[string]any{
		"status":  status,
		"message": richErr.Message,
	}

	if richErr.Category == errors.CategoryValidation {
		if fields := richErr.ValidationMap(); len(fields) > 0 {
			body["errors"] = fields
		}
	}

	if status == "error" {
		debugLogError(richErr)
	}

	return c.JSON(code, body)
}

type tokenValidatorAdapter struct {
	svc TokenValidator
}

func (t tokenValidatorAdapter) Validate(raw string) (jwtware.AuthClaims, error) {
	claims, err := t.svc.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func debugLogError(richErr *errors.Error) {
	defLogger{}.Error(
		"Server error: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)
}
