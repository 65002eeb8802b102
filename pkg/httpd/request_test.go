package httpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestLineAndHeaders(t *testing.T) {
	raw := "GET /items?id=7&name=two%20words HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"X-Custom: value with spaces\r\n" +
		"\r\n"

	req := ParseRequest(raw, "10.0.0.1:55555")

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/items", req.Path)
	assert.Equal(t, "id=7&name=two%20words", req.RawQuery)
	assert.Equal(t, "7", req.Query["id"])
	assert.Equal(t, "two words", req.Query["name"])
	assert.Equal(t, "example.com", req.Headers["Host"])
	assert.Equal(t, "value with spaces", req.Header("x-custom"))
	assert.Equal(t, "10.0.0.1:55555", req.RemoteAddr)
	assert.NotEmpty(t, req.ID)
}

func TestParseRequestMalformedRequestLine(t *testing.T) {
	req := ParseRequest("garbage\r\n\r\n", "1.2.3.4:1")
	assert.Equal(t, "", req.Method)
	assert.Equal(t, "", req.Path)
}

func TestParseRequestLFOnly(t *testing.T) {
	req := ParseRequest("GET /a HTTP/1.1\nHost: x\n\nbody", "1.2.3.4:1")
	assert.Equal(t, "/a", req.Path)
	assert.Equal(t, "x", req.Header("Host"))
	assert.Equal(t, "body", req.Body)
}

func TestParseRequestDuplicateHeaderLastWins(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nX-Thing: one\r\nX-Thing: two\r\n\r\n"
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "two", req.Header("X-Thing"))
}

func TestFormBody(t *testing.T) {
	raw := "POST /echo HTTP/1.1\r\n" +
		"Content-Type: application/x-www-form-urlencoded\r\n" +
		"\r\n" +
		"a=1&b=two%20words"

	req := ParseRequest(raw, "1.2.3.4:1")

	assert.Equal(t, map[string]string{"a": "1", "b": "two words"}, req.BodyParams)
}

func TestJSONBodyFlattening(t *testing.T) {
	raw := "POST /data HTTP/1.1\r\n" +
		"Content-Type: application/json; charset=utf-8\r\n" +
		"\r\n" +
		`{"name":"alice","age":30,"active":true,"address":{"city":"Rome"},"tags":["a","b"]}`

	req := ParseRequest(raw, "1.2.3.4:1")

	require.NotNil(t, req.JSON)
	assert.Equal(t, "alice", req.BodyParams["name"])
	assert.Equal(t, "30", req.BodyParams["age"])
	assert.Equal(t, "true", req.BodyParams["active"])
	assert.Equal(t, "Rome", req.BodyParams["address.city"])
	assert.Equal(t, `["a","b"]`, req.BodyParams["tags"])
}

func TestJSONBodyInvalid(t *testing.T) {
	raw := "POST /data HTTP/1.1\r\n" +
		"Content-Type: application/json\r\n" +
		"\r\n" +
		`{"broken":`

	req := ParseRequest(raw, "1.2.3.4:1")

	assert.Nil(t, req.JSON)
	assert.Equal(t, `{"broken":`, req.BodyParams[ParamInvalidJSON])
}

func TestJSONBodyArrayRoot(t *testing.T) {
	raw := "POST /data HTTP/1.1\r\nContent-Type: application/json\r\n\r\n[1,2,3]"
	req := ParseRequest(raw, "1.2.3.4:1")

	require.NotNil(t, req.JSON)
	assert.Equal(t, "[1,2,3]", req.BodyParams[ParamJSONArray])
}

func TestTextPlainBody(t *testing.T) {
	raw := "POST /note HTTP/1.1\r\nContent-Type: text/plain\r\n\r\nhello there"
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "hello there", req.BodyParams[ParamRawText])
}

func TestUnknownContentTypeBody(t *testing.T) {
	raw := "POST /blob HTTP/1.1\r\nContent-Type: application/octet-stream\r\n\r\n\x01\x02"
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "\x01\x02", req.BodyParams[ParamRawData])
}

func TestMultipartBody(t *testing.T) {
	body := "--bnd\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n" +
		"\r\n" +
		"report\r\n" +
		"--bnd--\r\n"
	raw := "POST /upload HTTP/1.1\r\n" +
		"Content-Type: multipart/form-data; boundary=bnd\r\n" +
		"\r\n" + body

	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "report", req.BodyParams["title"])
}

func TestSniffJSONBody(t *testing.T) {
	raw := "POST /data HTTP/1.1\r\n\r\n" + `{"k":"v"}`
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "v", req.BodyParams["k"])
}

func TestSniffFormBody(t *testing.T) {
	raw := "POST /data HTTP/1.1\r\n\r\na=1&b=2"
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "1", req.BodyParams["a"])
	assert.Equal(t, "2", req.BodyParams["b"])
}

func TestSniffRawTextBody(t *testing.T) {
	raw := "POST /data HTTP/1.1\r\n\r\njust some text"
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "just some text", req.BodyParams[ParamRawText])
}

func TestContentTypeStripsCharset(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nContent-Type: Application/JSON; charset=UTF-8\r\n\r\n{}"
	req := ParseRequest(raw, "1.2.3.4:1")
	assert.Equal(t, "application/json", req.ContentType())
}
