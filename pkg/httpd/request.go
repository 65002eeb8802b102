package httpd

import (
	"strings"

	"github.com/google/uuid"

	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/pkg/jsonval"
)

// Reserved body-parameter keys. When a body cannot be decoded into named
// fields the raw content is kept under one of these, so handlers always see
// the payload.
const (
	// ParamRawText holds a text/plain body verbatim.
	ParamRawText = "_raw_text"
	// ParamRawData holds a body with an unrecognized content type.
	ParamRawData = "_raw_data"
	// ParamInvalidJSON holds a JSON body that failed to parse.
	ParamInvalidJSON = "_invalid_json"
	// ParamJSONArray holds the compact JSON text of an array-rooted body.
	ParamJSONArray = "_json_array"
	// ParamJSONValue holds the string form of a scalar-rooted JSON body.
	ParamJSONValue = "_json_value"
)

// Request is the parsed form of one inbound HTTP message. It is built once
// per connection and handed read-only to the matched handler.
type Request struct {
	// ID is a unique identifier assigned at parse time, used to correlate
	// log lines for one request.
	ID string

	// Method is the request method verbatim (e.g. "GET").
	Method string

	// Path is the request target before any `?`, not percent-decoded.
	Path string

	// RawQuery is the undecoded query string, without the leading `?`.
	RawQuery string

	// Query holds the decoded query-string parameters, last-write-wins on
	// duplicates.
	Query map[string]string

	// Headers stores header fields as received. Use Header for
	// case-insensitive lookup.
	Headers map[string]string

	// Body is the raw request body.
	Body string

	// BodyParams holds the decoded body fields, keyed per content type
	// (form fields, flattened JSON, multipart parts, or a reserved key).
	BodyParams map[string]string

	// JSON is the parsed body document when the content type is JSON or
	// the body auto-detects as JSON; nil otherwise.
	JSON *jsonval.Document

	// RemoteAddr is the peer address the connection arrived from.
	RemoteAddr string
}

// Header returns the value of the named header, compared
// case-insensitively, or "" when absent.
func (r *Request) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// ContentType returns the media type of the body, lowercased and stripped
// of any parameters such as charset.
func (r *Request) ContentType() string {
	ct := r.Header("Content-Type")
	if semi := strings.IndexByte(ct, ';'); semi >= 0 {
		ct = ct[:semi]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// ParseRequest converts a raw HTTP message into a Request. It never fails:
// a malformed request line leaves Method and Path empty (which no route
// matches) and an undecodable body is preserved under a reserved
// body-parameter key.
func ParseRequest(raw string, remoteAddr string) *Request {
	req := &Request{
		ID:         uuid.New().String(),
		Query:      make(map[string]string),
		Headers:    make(map[string]string),
		BodyParams: make(map[string]string),
		RemoteAddr: remoteAddr,
	}

	head, body, found := strings.Cut(raw, "\r\n\r\n")
	if !found {
		head, body, _ = strings.Cut(raw, "\n\n")
	}
	req.Body = body

	lines := strings.Split(head, "\n")
	if len(lines) == 0 {
		return req
	}

	req.parseRequestLine(strings.TrimRight(lines[0], "\r"))
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		req.Headers[key] = strings.TrimSpace(value)
	}

	req.decodeBody()
	return req
}

func (r *Request) parseRequestLine(line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		logger.Debug("Malformed request line: %q", line)
		return
	}
	r.Method = fields[0]

	target := fields[1]
	path, query, hasQuery := strings.Cut(target, "?")
	r.Path = path
	if hasQuery {
		r.RawQuery = query
		parseQueryParams(query, r.Query)
	}
}

// decodeBody fills BodyParams according to the declared content type, or by
// sniffing the body when none is declared.
func (r *Request) decodeBody() {
	if r.Body == "" {
		return
	}

	switch ct := r.ContentType(); ct {
	case "application/x-www-form-urlencoded":
		parseFormParams(r.Body, r.BodyParams)
	case "application/json":
		r.decodeJSONBody()
	case "multipart/form-data":
		boundary := multipartBoundary(r.Header("Content-Type"))
		if boundary == "" {
			logger.Warn("Multipart body without boundary, keeping raw content")
			r.BodyParams[ParamRawData] = r.Body
			return
		}
		parseMultipart(r.Body, boundary, r.BodyParams)
	case "text/plain":
		r.BodyParams[ParamRawText] = r.Body
	case "":
		r.sniffBody()
	default:
		logger.Warn("Unhandled content type %q, keeping raw content", ct)
		r.BodyParams[ParamRawData] = r.Body
	}
}

func (r *Request) decodeJSONBody() {
	doc, err := jsonval.Parse([]byte(r.Body))
	if err != nil {
		logger.Debug("Invalid JSON body: %v", err)
		r.BodyParams[ParamInvalidJSON] = r.Body
		return
	}
	r.JSON = doc

	switch {
	case doc.IsObject():
		params, _ := doc.Flatten()
		for k, v := range params {
			r.BodyParams[k] = v
		}
	case doc.IsArray():
		r.BodyParams[ParamJSONArray] = doc.JSON()
	default:
		r.BodyParams[ParamJSONValue] = jsonval.ScalarString(doc.Value())
	}
}

// sniffBody guesses the encoding of a body that arrived without a content
// type: bracket-delimited means JSON, `=` plus a separator means form data,
// anything else is raw text.
func (r *Request) sniffBody() {
	trimmed := strings.TrimSpace(r.Body)
	switch {
	case len(trimmed) >= 2 && (trimmed[0] == '{' && trimmed[len(trimmed)-1] == '}' ||
		trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']'):
		r.decodeJSONBody()
	case strings.ContainsRune(r.Body, '=') &&
		(strings.ContainsRune(r.Body, '&') || strings.ContainsRune(r.Body, '\n')):
		parseFormParams(r.Body, r.BodyParams)
	default:
		r.BodyParams[ParamRawText] = r.Body
	}
}
