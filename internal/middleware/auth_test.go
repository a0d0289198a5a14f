package middleware

import (
	"testing"
	"time"

	"ripple/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-identity-secret-at-least-32-chars!!"

func testConfig() *config.Config {
	return &config.Config{
		AuthSecret:   testSecret,
		AuthIssuer:   "ripple-identity",
		AuthAudience: "ripple-client",
	}
}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":                "idp|abc123",
		"iss":                "ripple-identity",
		"aud":                "ripple-client",
		"exp":                time.Now().Add(time.Hour).Unix(),
		"name":               "Ada Lovelace",
		"email":              "ada@example.com",
		"preferred_username": "ada",
	}
}

func TestVerifyIdentityToken(t *testing.T) {
	InitMiddleware(testConfig())

	t.Run("valid token", func(t *testing.T) {
		ic, err := VerifyIdentityToken(signToken(t, validClaims(), testSecret))
		require.NoError(t, err)
		assert.Equal(t, "idp|abc123", ic.Subject)
		assert.Equal(t, "Ada Lovelace", ic.Name)
		assert.Equal(t, "ada@example.com", ic.Email)
		assert.Equal(t, "ada", ic.Handle)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := VerifyIdentityToken(signToken(t, validClaims(), "some-other-secret-that-is-long-enough!!"))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims()
		claims["iss"] = "someone-else"
		_, err := VerifyIdentityToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := validClaims()
		claims["aud"] = "other-app"
		_, err := VerifyIdentityToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := VerifyIdentityToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "exp")
		_, err := VerifyIdentityToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := validClaims()
		delete(claims, "sub")
		_, err := VerifyIdentityToken(signToken(t, claims, testSecret))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims())
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = VerifyIdentityToken(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer abc extra"))
}
