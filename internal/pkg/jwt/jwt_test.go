package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", "MEMBER", testSecret, 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "MEMBER", claims.Role)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "alice", "MEMBER", testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "alice", "MEMBER", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(7, "token-id-1", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "token-id-1", claims.TokenID)
}

func TestRefreshTokenNotValidAsAccessToken(t *testing.T) {
	refresh, err := GenerateRefreshToken(7, "token-id-1", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(refresh, testSecret)
	if err == nil {
		// Same signing method, so parsing succeeds; the claims must not
		// carry an identity usable as an access token.
		assert.Empty(t, claims.Username)
		assert.Empty(t, claims.Role)
	}
}

func TestGarbageToken(t *testing.T) {
	_, err := ValidateAccessToken("not-a-jwt", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateRefreshToken("not-a-jwt", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
