package httpd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breezehq/breeze/internal/audit"
)

func TestResponseDefaults(t *testing.T) {
	res := NewResponse(nil)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, jsonContentType, res.Headers["Content-Type"])
	assert.Equal(t, "", res.Body)
}

func TestResponseSerializeStatusLineAndCORS(t *testing.T) {
	res := NewResponse(nil)
	res.JSON(`{"message":"hi"}`)
	out := string(res.Serialize())

	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Access-Control-Allow-Origin: *\r\n")
	assert.Contains(t, out, "Access-Control-Allow-Methods: GET, POST, PUT, DELETE, OPTIONS\r\n")
	assert.Contains(t, out, "Access-Control-Allow-Headers: Content-Type, Authorization, X-Requested-With\r\n")
	assert.Contains(t, out, "Access-Control-Max-Age: 86400\r\n")
	assert.Contains(t, out, "Content-Type: application/json; charset=utf-8\r\n")
	assert.Contains(t, out, "Content-Length: 16\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n{\"message\":\"hi\"}"))
}

func TestReasonPhrases(t *testing.T) {
	assert.Equal(t, "OK", reasonPhrase(200))
	assert.Equal(t, "Created", reasonPhrase(201))
	assert.Equal(t, "Bad Request", reasonPhrase(400))
	assert.Equal(t, "Not Found", reasonPhrase(404))
	assert.Equal(t, "Internal Server Error", reasonPhrase(500))
	assert.Equal(t, "Unknown", reasonPhrase(418))
}

func TestResponseError(t *testing.T) {
	res := NewResponse(nil)
	res.Error(404, "Resource not found")

	assert.Equal(t, 404, res.StatusCode)
	assert.Equal(t, `{"status":"fail","message":"Resource not found"}`, res.Body)
}

func TestResponseErrorWritesAudit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	res := NewResponse(audit.NewWriter(path))
	res.Error(500, "error: boom")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "500 error: boom\n", string(data))
}

func TestResponseSuccess(t *testing.T) {
	res := NewResponse(nil)
	res.Success(map[string]string{"token": "abc", "id": "7"})

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, `{"status":"ok","message":"Success","id":"7","token":"abc"}`, res.Body)
}

func TestResponseSuccessNoExtra(t *testing.T) {
	res := NewResponse(nil)
	res.Success(nil)
	assert.Equal(t, `{"status":"ok","message":"Success"}`, res.Body)
}

func TestResponseText(t *testing.T) {
	res := NewResponse(nil)
	res.Text("plain words")
	assert.Equal(t, "text/plain; charset=utf-8", res.Headers["Content-Type"])
	assert.Equal(t, "plain words", res.Body)
}

func TestSerializeSortsDeclaredHeaders(t *testing.T) {
	res := NewResponse(nil)
	res.Header("X-Zeta", "z")
	res.Header("X-Alpha", "a")
	out := string(res.Serialize())

	assert.Less(t, strings.Index(out, "X-Alpha"), strings.Index(out, "X-Zeta"))
}

func TestSerializeIgnoresDeclaredContentLength(t *testing.T) {
	res := NewResponse(nil)
	res.Header("Content-Length", "999")
	res.Body = "four"
	out := string(res.Serialize())

	assert.Contains(t, out, "Content-Length: 4\r\n")
	assert.NotContains(t, out, "Content-Length: 999")
}

func TestSendFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("file body"), 0o644))

	res := NewResponse(nil)
	res.SendFile(path, false)

	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "file body", res.Body)
	assert.Contains(t, res.Headers["Content-Type"], "text/plain")
	assert.Equal(t, `attachment; filename="report.txt"`, res.Headers["Content-Disposition"])
}

func TestSendFileInline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>hi</p>"), 0o644))

	res := NewResponse(nil)
	res.SendFile(path, true)

	assert.Equal(t, `inline; filename="page.html"`, res.Headers["Content-Disposition"])
}

func TestSendFileMissing(t *testing.T) {
	res := NewResponse(nil)
	res.SendFile(filepath.Join(t.TempDir(), "nope.txt"), false)

	assert.Equal(t, 404, res.StatusCode)
	assert.Equal(t, `{"status":"fail","message":"File not found"}`, res.Body)
}

func TestSendFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	res := NewResponse(nil)
	res.SendFile(path, false)

	assert.Equal(t, 400, res.StatusCode)
	assert.Equal(t, `{"status":"fail","message":"File is empty"}`, res.Body)
}

func TestSendFileUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.zzz")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	res := NewResponse(nil)
	res.SendFile(path, false)

	assert.Equal(t, "application/octet-stream", res.Headers["Content-Type"])
}
