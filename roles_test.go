package auth_test

import (
	"testing"

	auth "github.com/goliatone/tours-auth"
	"github.com/stretchr/testify/assert"
)

func TestUserRoleIsValid(t *testing.T) {
	assert.True(t, auth.RoleUser.IsValid())
	assert.True(t, auth.RoleGuide.IsValid())
	assert.True(t, auth.RoleLeadGuide.IsValid())
	assert.True(t, auth.RoleAdmin.IsValid())
	assert.False(t, auth.UserRole("superuser").IsValid())
	assert.False(t, auth.UserRole("").IsValid())
}

func TestUserRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		name string
		role auth.UserRole
		min  auth.UserRole
		want bool
	}{
		{"admin over lead-guide", auth.RoleAdmin, auth.RoleLeadGuide, true},
		{"lead-guide over guide", auth.RoleLeadGuide, auth.RoleGuide, true},
		{"guide over user", auth.RoleGuide, auth.RoleUser, true},
		{"user is user", auth.RoleUser, auth.RoleUser, true},
		{"user under admin", auth.RoleUser, auth.RoleAdmin, false},
		{"guide under lead-guide", auth.RoleGuide, auth.RoleLeadGuide, false},
		{"unknown role fails", auth.UserRole("superuser"), auth.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.IsAtLeast(tt.min))
		})
	}
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("lead-guide")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleLeadGuide, role)

	_, ok = auth.ParseRole("superuser")
	assert.False(t, ok)
}
