package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	s := NewService("secret", time.Hour)

	token, expiresIn, err := s.GenerateAccessToken("user-1", "player")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := s.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "player", claims.Username)
}

func TestService_ValidateAccessToken_Rejects(t *testing.T) {
	s := NewService("secret", time.Hour)
	valid, _, err := s.GenerateAccessToken("user-1", "player")
	require.NoError(t, err)

	expired, _, err := NewService("secret", -time.Minute).GenerateAccessToken("user-1", "player")
	require.NoError(t, err)

	foreign, _, err := NewService("other-secret", time.Hour).GenerateAccessToken("user-1", "player")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "unsigned", token: none},
		{name: "truncated", token: valid[:len(valid)-4]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
