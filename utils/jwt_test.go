package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtractToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "user-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	id, email, err := ExtractClaims(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
	assert.Equal(t, "a@example.com", email)
}

func TestExtractClaimsRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("one"), "user-1", "", time.Hour)
	require.NoError(t, err)

	_, _, err = ExtractClaims([]byte("two"), token)
	assert.Error(t, err)
}

func TestExtractClaimsRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken(secret, "user-1", "", -time.Minute)
	require.NoError(t, err)

	_, _, err = ExtractClaims(secret, token)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken(nil, "user-1", "", time.Hour)
	assert.Error(t, err)
}

func TestValidateTokenRejectsEmptySecret(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(""))
	require.NoError(t, err)

	_, err = ValidateToken(nil, forged)
	assert.Error(t, err)
	_, _, err = ExtractClaims([]byte{}, forged)
	assert.Error(t, err)
}
