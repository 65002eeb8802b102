package httpd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/breezehq/breeze/internal/audit"
	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/pkg/jsonval"
)

const jsonContentType = "application/json; charset=utf-8"

// reasonPhrase maps the status codes the engine emits to their standard
// phrase. Anything else renders "Unknown".
func reasonPhrase(code int) string {
	switch code {
	case 200:
		return "OK"
	case 201:
		return "Created"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}

// Response is the mutable reply a handler fills in. It starts as a 200 with
// a JSON content type and is serialized exactly once after the handler
// returns.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string

	auditLog *audit.Writer
}

// NewResponse returns a Response pre-seeded with status 200 and a JSON
// content type. auditLog may be nil; when set, Error writes one line to it
// per call.
func NewResponse(auditLog *audit.Writer) *Response {
	return &Response{
		StatusCode: 200,
		Headers: map[string]string{
			"Content-Type": jsonContentType,
		},
		auditLog: auditLog,
	}
}

// Status sets the status code.
func (r *Response) Status(code int) *Response {
	r.StatusCode = code
	return r
}

// Header sets a response header.
func (r *Response) Header(name, value string) *Response {
	r.Headers[name] = value
	return r
}

// JSON sets body to the given JSON text and the content type to JSON.
func (r *Response) JSON(body string) *Response {
	r.Headers["Content-Type"] = jsonContentType
	r.Body = body
	return r
}

// Text sets body to plain text.
func (r *Response) Text(body string) *Response {
	r.Headers["Content-Type"] = "text/plain; charset=utf-8"
	r.Body = body
	return r
}

// Success sets a 200 JSON body of the fixed success shape, merging extra
// fields after status and message in sorted key order. extra may be nil.
func (r *Response) Success(extra map[string]string) *Response {
	var b strings.Builder
	b.WriteString(`{"status":"ok","message":"Success"`)
	for _, key := range jsonval.SortedKeys(extra) {
		b.WriteByte(',')
		b.WriteString(jsonval.Quote(key))
		b.WriteByte(':')
		b.WriteString(jsonval.Quote(extra[key]))
	}
	b.WriteByte('}')

	r.StatusCode = 200
	return r.JSON(b.String())
}

// Error sets the status code and the fixed failure body, and writes the
// failure to the audit log synchronously.
func (r *Response) Error(code int, message string) *Response {
	r.StatusCode = code
	r.JSON(`{"status":"fail","message":` + jsonval.Quote(message) + `}`)

	if r.auditLog != nil {
		if err := r.auditLog.Write(fmt.Sprintf("%d %s", code, message)); err != nil {
			logger.Warn("Audit log write failed: %v", err)
		}
	}
	return r
}

// SendFile loads the file at path into the body, setting the content type
// from the extension and a Content-Disposition naming the base file. When
// inline is false the disposition is attachment. Missing file yields 404,
// empty file 400, read failure 500.
func (r *Response) SendFile(path string, inline bool) *Response {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r.Error(404, "File not found")
		}
		logger.Error("Stat failed for %s: %v", path, err)
		return r.Error(500, "Unable to read file")
	}
	if info.Size() == 0 {
		return r.Error(400, "File is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Read failed for %s: %v", path, err)
		return r.Error(500, "Unable to read file")
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}

	r.Headers["Content-Type"] = contentType
	r.Headers["Content-Disposition"] = fmt.Sprintf("%s; filename=%q", disposition, filepath.Base(path))
	r.Body = string(data)
	return r
}

// Serialize renders the response to wire bytes: status line, the fixed CORS
// block, declared headers in sorted order, computed Content-Length, then the
// body. A declared Content-Length is ignored in favor of the computed one.
func (r *Response) Serialize() []byte {
	var b strings.Builder
	b.Grow(len(r.Body) + 512)

	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.StatusCode, reasonPhrase(r.StatusCode))
	b.WriteString("Access-Control-Allow-Origin: *\r\n")
	b.WriteString("Access-Control-Allow-Methods: GET, POST, PUT, DELETE, OPTIONS\r\n")
	b.WriteString("Access-Control-Allow-Headers: Content-Type, Authorization, X-Requested-With\r\n")
	b.WriteString("Access-Control-Max-Age: 86400\r\n")

	for _, key := range jsonval.SortedKeys(r.Headers) {
		if strings.EqualFold(key, "Content-Length") {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\r\n", key, r.Headers[key])
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	b.WriteString("Connection: close\r\n\r\n")
	b.WriteString(r.Body)

	return []byte(b.String())
}
