package utils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-parking", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-parking", hash)

	require.True(t, VerifyPassword(hash, "s3cret-parking"))
	require.False(t, VerifyPassword(hash, "wrong-password"))
	require.False(t, VerifyPassword("not-a-bcrypt-hash", "s3cret-parking"))
}

func TestHashPasswordDistinctSalts(t *testing.T) {
	h1, err := HashPassword("same-input", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("same-input", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}
