package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/config"
)

func TestNewTokenService(t *testing.T) {
	t.Run("secret required", func(t *testing.T) {
		svc, err := NewTokenService(config.JWTConfig{})
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("zero ttl falls back", func(t *testing.T) {
		svc, err := NewTokenService(config.JWTConfig{Secret: "secret"})
		require.NoError(t, err)
		assert.Equal(t, time.Hour, svc.ttl)
	})
}

func TestTokenService_SignParse(t *testing.T) {
	svc, err := NewTokenService(config.JWTConfig{Secret: "secret", TTLMin: 5})
	require.NoError(t, err)

	token, err := svc.Sign(42, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "docvault", claims.Issuer)
}

func TestTokenService_ParseRejects(t *testing.T) {
	svc, err := NewTokenService(config.JWTConfig{Secret: "secret", TTLMin: 5})
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		claims, err := svc.Parse("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenService(config.JWTConfig{Secret: "other", TTLMin: 5})
		require.NoError(t, err)

		token, err := other.Sign(42, "user@example.com")
		require.NoError(t, err)

		claims, err := svc.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 42})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		claims, err := svc.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})

	t.Run("expired", func(t *testing.T) {
		expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			UserID: 42,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		token, err := expired.SignedString([]byte("secret"))
		require.NoError(t, err)

		claims, err := svc.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.Nil(t, claims)
	})
}
