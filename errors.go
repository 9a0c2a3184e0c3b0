package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeNotLoggedIn        = "NOT_LOGGED_IN"
	TextCodeUserGone           = "USER_GONE"
	TextCodePasswordChanged    = "PASSWORD_CHANGED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodePermissionDenied   = "PERMISSION_DENIED"
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeResetTokenInvalid  = "RESET_TOKEN_INVALID"
)

// ErrInvalidCredentials is the uniform login failure. It deliberately does not
// distinguish an unknown email from a wrong password.
var ErrInvalidCredentials = errors.New("incorrect email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNotLoggedIn is returned when a protected route receives no usable bearer token.
var ErrNotLoggedIn = errors.New("you are not logged in, please log in to get access", errors.CategoryAuth).
	WithTextCode(TextCodeNotLoggedIn).
	WithCode(errors.CodeUnauthorized)

// ErrUserGone is returned when a valid token references a deleted user.
var ErrUserGone = errors.New("the user belonging to this token no longer exists", errors.CategoryAuth).
	WithTextCode(TextCodeUserGone).
	WithCode(errors.CodeUnauthorized)

// ErrPasswordChanged rejects tokens issued before the subject's last password change.
var ErrPasswordChanged = errors.New("password was recently changed, please log in again", errors.CategoryAuth).
	WithTextCode(TextCodePasswordChanged).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("authentication token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens with a bad signature or structure.
var ErrTokenMalformed = errors.New("invalid authentication token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrPermissionDenied is returned when the principal's role is not in the
// allowed set for a route.
var ErrPermissionDenied = errors.New("you do not have permission to perform this action", errors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied).
	WithCode(errors.CodeForbidden)

// ErrEmailTaken is returned when signup hits the unique email constraint.
var ErrEmailTaken = errors.New("a user with this email address already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrResetTokenInvalid covers both a wrong and an expired reset token so the
// endpoint cannot be used as an oracle.
var ErrResetTokenInvalid = errors.New("password reset token is invalid or has expired", errors.CategoryValidation).
	WithTextCode(TextCodeResetTokenInvalid).
	WithCode(errors.CodeBadRequest)

// ErrCurrentPasswordWrong is returned by the password update flow.
var ErrCurrentPasswordWrong = errors.New("your current password is incorrect", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString guards hashing of empty passwords.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the sentinel for any failed password comparison.
var ErrMismatchedHashAndPassword = errors.New("hashed password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isUniqueViolation matches the unique constraint messages of the supported
// dialects, sqlite and postgres.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}
