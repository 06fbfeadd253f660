package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "smartration/pkg/domain-errors"
)

var jwtService = NewJWTService("test-signing-key", "smartration")
var email = "admin@example.com"
var expiresIn = 2 * time.Hour

func Test_GenerateAdminToken(t *testing.T) {
	token, err := jwtService.GenerateAdminToken(email, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, email, claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAdminToken(email, -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_ExpiresAfterTTL(t *testing.T) {
	issued := time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC)
	svc := NewJWTService("test-signing-key", "smartration")
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateAdminToken(email, expiresIn)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(expiresIn - time.Minute) }
	_, err = svc.ValidateToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(expiresIn + time.Minute) }
	_, err = svc.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("another-key", "smartration")
	token, err := other.GenerateAdminToken(email, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_RejectsNonAdminRole(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  "clerk",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "smartration",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: email, Role: RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_SessionVerifier(t *testing.T) {
	token, err := jwtService.GenerateAdminToken(email, expiresIn)
	require.NoError(t, err)

	session, err := NewSessionVerifier(jwtService).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, email, session.Email)
}
