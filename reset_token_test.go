package auth_test

import (
	"testing"

	auth "github.com/goliatone/tours-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	raw, digest, err := auth.GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, raw, 64)
	assert.Len(t, digest, 64)
	assert.NotEqual(t, raw, digest)
	assert.Equal(t, auth.HashResetToken(raw), digest)
}

func TestGenerateResetTokenUnique(t *testing.T) {
	raw1, _, err := auth.GenerateResetToken()
	require.NoError(t, err)

	raw2, _, err := auth.GenerateResetToken()
	require.NoError(t, err)

	assert.NotEqual(t, raw1, raw2)
}

func TestHashResetTokenDeterministic(t *testing.T) {
	assert.Equal(t, auth.HashResetToken("abc"), auth.HashResetToken("abc"))
	assert.NotEqual(t, auth.HashResetToken("abc"), auth.HashResetToken("abd"))
}
