package httpd

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/breezehq/breeze/internal/logger"
)

const (
	// maxHeaderBytes caps how much is accumulated while looking for the end
	// of the header block.
	maxHeaderBytes = 8 * 1024
	// maxBodyBytes caps the body read even when Content-Length declares
	// more.
	maxBodyBytes = 1024 * 1024

	readChunkSize = 4096
)

// readRequest accumulates the header block until the blank line, then reads
// the body up to the declared Content-Length. Without a Content-Length the
// body is whatever arrived alongside the headers. Both phases are bounded
// by hard caps; hitting a cap returns what was read so far.
func readRequest(conn net.Conn) (string, error) {
	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)

	headerEnd := -1
	for headerEnd < 0 && len(buf) < maxHeaderBytes {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			headerEnd = findHeaderEnd(buf)
		}
		if err != nil {
			if err == io.EOF && len(buf) > 0 {
				return string(buf), nil
			}
			return string(buf), fmt.Errorf("reading request: %w", err)
		}
	}
	if headerEnd < 0 {
		logger.Warn("Header block exceeded %d bytes, parsing what arrived", maxHeaderBytes)
		return string(buf), nil
	}

	contentLength := declaredContentLength(string(buf[:headerEnd]))
	if contentLength <= 0 {
		return string(buf), nil
	}
	if contentLength > maxBodyBytes {
		logger.Warn("Declared Content-Length %d exceeds cap, truncating to %d", contentLength, maxBodyBytes)
		contentLength = maxBodyBytes
	}

	want := headerEnd + contentLength
	for len(buf) < want {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
	}
	if len(buf) > want {
		buf = buf[:want]
	}
	return string(buf), nil
}

// findHeaderEnd returns the offset just past the header/body separator, or
// -1 when the blank line has not arrived yet.
func findHeaderEnd(buf []byte) int {
	if idx := bytes.Index(buf, []byte("\r\n\r\n")); idx >= 0 {
		return idx + 4
	}
	if idx := bytes.Index(buf, []byte("\n\n")); idx >= 0 {
		return idx + 2
	}
	return -1
}

// declaredContentLength scans the raw header block for Content-Length.
// Returns 0 when absent or unparseable.
func declaredContentLength(head string) int {
	for _, line := range strings.Split(head, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimRight(value, "\r")))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

// handleConnection runs on a pool worker: read, parse, route, respond,
// close. Nothing escapes it; every failure path either answers with an
// error response or closes the socket silently.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	s.metrics.ConnectionOpened()
	defer s.metrics.ConnectionClosed()

	start := time.Now()
	remoteAddr := conn.RemoteAddr().String()
	remoteIP := remoteAddr
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteIP = host
	}

	raw, err := readRequest(conn)
	if raw == "" {
		if err != nil {
			logger.Debug("Connection from %s closed before a request arrived: %v", remoteIP, err)
		}
		return
	}

	if s.auditLog != nil {
		if werr := s.auditLog.Write(fmt.Sprintf("%s %s %s", time.Now().Format(time.RFC3339), remoteIP, raw)); werr != nil {
			logger.Warn("Audit log write failed: %v", werr)
		}
	}

	req := ParseRequest(raw, remoteAddr)
	res := NewResponse(s.auditLog)

	// OPTIONS bypasses routing: the fixed CORS block in the serialized
	// response is the whole answer.
	if req.Method == "OPTIONS" {
		res.Status(200)
		res.Body = ""
	} else {
		s.dispatch(req, res)
	}

	if _, werr := conn.Write(res.Serialize()); werr != nil {
		logger.Error("Writing response to %s failed: %v", remoteIP, werr)
	}

	duration := time.Since(start)
	s.metrics.RecordRequest(req.Method, req.Path, res.StatusCode, duration)
	s.logAccess(remoteIP, req, res, duration)
}

// dispatch routes the request and runs the handler with panic isolation, so
// a failing handler yields a 500 instead of killing the worker.
func (s *Server) dispatch(req *Request, res *Response) {
	handler, ok := s.router.Find(req.Method, req.Path)
	if !ok {
		res.Error(404, "Resource not found")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprint(r)
			if err, isErr := r.(error); isErr {
				message = err.Error()
			}
			logger.Error("Handler for %s %s panicked: %s", req.Method, req.Path, message)
			res.Error(500, "error: "+message)
		}
	}()
	handler(req, res)
}

func (s *Server) logAccess(remoteIP string, req *Request, res *Response, duration time.Duration) {
	target := req.Path
	if s.logParams && req.RawQuery != "" {
		target += "?" + req.RawQuery
	}
	logger.Access(fmt.Sprintf("%s - - [%s] \"%s %s HTTP/1.1\" %d %d %dms",
		remoteIP,
		time.Now().Format("02/Jan/2006:15:04:05 -0700"),
		req.Method,
		target,
		res.StatusCode,
		len(res.Body),
		duration.Milliseconds()))
}
