package server

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartUpload(t *testing.T, filename string, content []byte, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadEndpoint(t *testing.T) {
	s, app := newTestServer(t)
	_, token := registerUser(t, s, app, "alice", "Alice Liddell")

	t.Run("multipart upload lands in the media dir", func(t *testing.T) {
		resp, err := app.Test(multipartUpload(t, "selfie.png", []byte("png-bytes"), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body UploadResponse
		decodeJSON(t, resp, &body)
		require.NotEmpty(t, body.ID)
		assert.True(t, strings.HasPrefix(body.URL, "/media/"))
		assert.True(t, strings.HasSuffix(body.URL, ".png"))

		stored, err := os.ReadFile(filepath.Join(s.config.MediaDir, filepath.Base(body.URL)))
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), stored)
	})

	t.Run("base64 upload", func(t *testing.T) {
		payload := map[string]string{
			"data":     base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
			"filename": "photo.jpg",
		}
		resp, err := app.Test(apiRequest(t, http.MethodPost, "/api/upload", payload, token))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var body UploadResponse
		decodeJSON(t, resp, &body)
		assert.True(t, strings.HasSuffix(body.URL, ".jpg"))
	})

	t.Run("unsupported extension rejected", func(t *testing.T) {
		resp, err := app.Test(multipartUpload(t, "payload.exe", []byte("nope"), token))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing payload rejected", func(t *testing.T) {
		resp, err := app.Test(apiRequest(t, http.MethodPost, "/api/upload", map[string]string{}, token))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("requires auth", func(t *testing.T) {
		resp, err := app.Test(multipartUpload(t, "selfie.png", []byte("png-bytes"), "bad-token"))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
