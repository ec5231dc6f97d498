package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestParseToken(t *testing.T) {
	userID := "3f1c9a4e-5b7d-4c2e-9a1f-0d8e6b2c4a10"
	perms := []string{"can_mark_returned", "can_renew"}

	t.Run("round trip keeps subject and permissions", func(t *testing.T) {
		token, jti, err := GenerateToken(testSecret, userID, perms, time.Hour)
		require.NoError(t, err)
		assert.Len(t, jti, 32)

		claims, err := ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.Sub)
		assert.Equal(t, perms, claims.Perms)
		assert.Equal(t, jti, claims.ID)
	})

	t.Run("token without permissions", func(t *testing.T) {
		token, _, err := GenerateToken(testSecret, userID, nil, time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Empty(t, claims.Perms)
	})

	t.Run("invalid signature", func(t *testing.T) {
		token, _, err := GenerateToken("wrong-secret", userID, perms, time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(testSecret, token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("expired token", func(t *testing.T) {
		c := Claims{
			Sub: userID,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
		require.NoError(t, err)

		claims, err := ParseToken(testSecret, token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, _, err := GenerateToken(testSecret, "", nil, time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(testSecret, token)
		assert.Error(t, err)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := ParseToken(testSecret, "not.a.valid.token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}
