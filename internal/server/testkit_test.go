package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ripple/internal/config"
	"ripple/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:         "0",
		Env:          "test",
		MediaDir:     t.TempDir(),
		AuthSecret:   "test-secret",
		AuthIssuer:   "ripple-identity",
		AuthAudience: "ripple-client",
	}
}

// newTestServer wires a Server against an in-memory database with no Redis.
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s, err := NewServerWithDeps(testConfig(t), db, nil)
	require.NoError(t, err)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

// identityToken signs a token the way the identity provider does.
func identityToken(t *testing.T, cfg *config.Config, subject, handle, name string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss": cfg.AuthIssuer,
		"aud": cfg.AuthAudience,
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if handle != "" {
		claims["preferred_username"] = handle
	}
	if name != "" {
		claims["name"] = name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.AuthSecret))
	require.NoError(t, err)
	return signed
}

// apiRequest builds a JSON request with an optional bearer token.
func apiRequest(t *testing.T, method, target string, body interface{}, token string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}
