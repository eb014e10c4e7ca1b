package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	ok, err := CheckPassword(hash, "hunter22")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "hunter23")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = CheckPassword(hash, strings.Repeat("a", 73))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "hunter22")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "clipit", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", "a@example.com", "creator")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "creator", claims.Role)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "clipit", time.Hour)
	require.NoError(t, err)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	token, err := issuer.Issue("user-1", "a@example.com", "clipper")
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSecretAndAlgorithm(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "clipit", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("other-secret", "clipit", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("user-1", "a@example.com", "clipper")
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerValidates(t *testing.T) {
	_, err := NewTokenIssuer(" ", "clipit", time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer("secret", "clipit", 0)
	assert.Error(t, err)
}
