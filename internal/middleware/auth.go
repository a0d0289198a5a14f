// Package middleware provides authentication, logging, rate limiting and
// tracing middleware for the application.
package middleware

import (
	"errors"
	"strings"

	"ripple/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// ErrInvalidToken is returned when an identity token fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityClaims holds the verified claims of an identity provider token.
type IdentityClaims struct {
	Subject string
	Name    string
	Email   string
	Handle  string
}

// BearerToken extracts the raw token from an Authorization header value.
// Returns an empty string if the header is missing or malformed.
func BearerToken(authHeader string) string {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// VerifyIdentityToken parses and validates a token issued by the identity
// provider. The provider signs with a shared HMAC secret; issuer and audience
// must match the configured values. The subject claim carries the provider's
// stable identifier for the user.
func VerifyIdentityToken(tokenString string) (*IdentityClaims, error) {
	if cfg == nil {
		return nil, errors.New("middleware not initialized")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(cfg.AuthSecret), nil
	},
		jwt.WithIssuer(cfg.AuthIssuer),
		jwt.WithAudience(cfg.AuthAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidToken
	}

	ic := &IdentityClaims{Subject: sub}
	if v, ok := claims["name"].(string); ok {
		ic.Name = v
	}
	if v, ok := claims["email"].(string); ok {
		ic.Email = v
	}
	if v, ok := claims["preferred_username"].(string); ok {
		ic.Handle = v
	}
	return ic, nil
}

// Unauthorized writes a 401 response with the given message.
func Unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": message,
	})
}
