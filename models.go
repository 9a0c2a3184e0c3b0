package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. PasswordHash and the reset bookkeeping fields never
// leave the process: they are excluded from JSON serialization and, for the
// hash, from the default read projection (see Users.GetByEmail).
type User struct {
	bun.BaseModel          `bun:"table:users,alias:usr"`
	ID                     uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                   string     `bun:"name,notnull" json:"name,omitempty"`
	Email                  string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role                   UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	PasswordHash           string     `bun:"password_hash,notnull" json:"-"`
	PasswordChangedAt      *time.Time `bun:"password_changed_at,nullzero" json:"-"`
	PasswordResetTokenHash string     `bun:"password_reset_token_hash,nullzero" json:"-"`
	PasswordResetExpiry    *time.Time `bun:"password_reset_expiry,nullzero" json:"-"`
	CreatedAt              *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt              *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// NormalizeEmail lowercases and trims an email address so uniqueness is
// case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ChangedPasswordAfter reports whether the password was changed after the
// given token issue time. JWT issued-at stamps have second precision, so the
// change timestamp is truncated before the comparison.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt)
}

// HasPendingReset reports whether a reset token digest and its expiry are both
// present. The two fields are only ever written and cleared together.
func (u *User) HasPendingReset() bool {
	return u.PasswordResetTokenHash != "" && u.PasswordResetExpiry != nil
}

// UserRecord is the outward facing projection of a User. Password fields have
// no representation here at all.
type UserRecord struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      UserRole   `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewUserRecord creates the serializable projection of a user.
func NewUserRecord(user *User) UserRecord {
	return UserRecord{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
