package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	token, err := maker.GenerateToken("user-uid-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-uid-1", claims.UserUID)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestMaker_ExpiredToken(t *testing.T) {
	maker := NewJWTMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("user-uid-1")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestMaker_WrongKey(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)
	other := NewJWTMaker("another-secret", time.Hour)

	token, err := other.GenerateToken("user-uid-1")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMaker_Garbage(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	_, err := maker.ParseToken("not.a.token")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
