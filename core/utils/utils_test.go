package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	assert.Len(t, a, 10)
	assert.NotEqual(t, a, b)
}

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := SignToken(userID, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestParseToken_Rejects(t *testing.T) {
	userID := uuid.New()

	wrongSecret, err := SignToken(userID, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(wrongSecret, "other")
	assert.Error(t, err)

	expired, err := SignToken(userID, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noUser, err := SignToken(uuid.Nil, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(noUser, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
