package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read side of a verified token.
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() UserRole
	HasRole(role UserRole) bool
	IsAtLeast(role UserRole) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims carries the registered claim set plus the user id and role.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID      string   `json:"uid,omitempty"`
	UserRole UserRole `json:"role,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

func (c *JWTClaims) Subject() string { return c.RegisteredClaims.Subject }

func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

func (c *JWTClaims) Role() UserRole { return c.UserRole }

func (c *JWTClaims) HasRole(role UserRole) bool {
	return c.UserRole == role
}

func (c *JWTClaims) IsAtLeast(role UserRole) bool {
	return c.UserRole.IsAtLeast(role)
}

func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}
