package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", 7)

	token, err := signer.GenerateAdminToken()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.VerifyAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, AdminRole, claims.Role)

	window := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 7*24*time.Hour, window)
}

func TestAdminTokenWrongSecret(t *testing.T) {
	token, err := NewSigner("secret-a", 7).GenerateAdminToken()
	require.NoError(t, err)

	_, err = NewSigner("secret-b", 7).VerifyAdminToken(token)
	assert.Error(t, err)
}

func TestAdminTokenExpired(t *testing.T) {
	signer := NewSigner("test-secret", 7)

	past := time.Now().UTC().Add(-time.Hour)
	claims := &AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past.Add(-24 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = signer.VerifyAdminToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAdminTokenWithoutAdminRole(t *testing.T) {
	signer := NewSigner("test-secret", 7)

	now := time.Now().UTC()
	claims := &AdminClaims{
		Role: "member",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = signer.VerifyAdminToken(token)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestAdminTokenGarbageInput(t *testing.T) {
	signer := NewSigner("test-secret", 7)

	_, err := signer.VerifyAdminToken("not-a-token")
	assert.Error(t, err)

	_, err = signer.VerifyAdminToken("")
	assert.Error(t, err)
}
