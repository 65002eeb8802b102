package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	a := New("test-secret", time.Hour)

	token, err := a.Generate(map[string]string{"sub": "user-1", "role": "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
	assert.NotContains(t, claims, "iat")
	assert.NotContains(t, claims, "exp")
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := New("secret-a", time.Hour).Generate(map[string]string{"sub": "u"})
	require.NoError(t, err)

	_, err = New("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpired(t *testing.T) {
	a := New("test-secret", -time.Minute)

	token, err := a.Generate(nil)
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := New("test-secret", time.Hour).Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateIgnoresReservedClaims(t *testing.T) {
	a := New("test-secret", time.Hour)

	token, err := a.Generate(map[string]string{"exp": "0", "sub": "u"})
	require.NoError(t, err)

	// A forged exp of 0 would make the token invalid; it must be ignored.
	claims, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u", claims["sub"])
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := HashPassword("same")
	require.NoError(t, err)
	h2, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
