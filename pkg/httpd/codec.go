package httpd

import "strings"

// URLDecode percent-decodes s. `+` becomes a space and `%XX` with two valid
// hex digits becomes the corresponding byte; a malformed escape is kept
// verbatim.
func URLDecode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s):
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 2
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// URLEncode percent-encodes every byte of s outside the unreserved set.
func URLEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			c == '-' || c == '_' || c == '.' || c == '~' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// parseQueryParams decodes `&`-separated `key=value` pairs into params.
// Keys and values are percent-decoded; duplicate keys are last-write-wins;
// pairs without `=` are skipped.
func parseQueryParams(s string, params map[string]string) {
	for _, pair := range strings.Split(s, "&") {
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		key := URLDecode(pair[:eq])
		if key == "" {
			continue
		}
		params[key] = URLDecode(pair[eq+1:])
	}
}

// parseFormParams decodes a form-encoded body. Same algorithm as
// parseQueryParams except that a key without `=` is kept with an empty
// value.
func parseFormParams(s string, params map[string]string) {
	for _, pair := range strings.Split(s, "&") {
		key, value, hasValue := strings.Cut(pair, "=")
		key = URLDecode(key)
		if key == "" {
			continue
		}
		if !hasValue {
			params[key] = ""
			continue
		}
		params[key] = URLDecode(value)
	}
}

// multipartBoundary extracts the boundary token from a multipart/form-data
// content type. Quotes around the token are stripped.
func multipartBoundary(contentType string) string {
	for _, part := range strings.Split(contentType, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(strings.ToLower(part), "boundary=") {
			continue
		}
		boundary := part[len("boundary="):]
		return strings.Trim(boundary, `"`)
	}
	return ""
}

// parseMultipart splits body on the boundary and stores each part's
// Content-Disposition name as a key mapped to the part content. Parts
// without a name, and the closing marker, are ignored.
func parseMultipart(body, boundary string, params map[string]string) {
	marker := "--" + boundary
	for _, part := range strings.Split(body, marker) {
		part = strings.TrimPrefix(part, "\r\n")
		if part == "" || part == "--" || part == "--\r\n" {
			continue
		}

		headerBlock, content, found := strings.Cut(part, "\r\n\r\n")
		if !found {
			headerBlock, content, found = strings.Cut(part, "\n\n")
			if !found {
				continue
			}
		}

		name := partName(headerBlock)
		if name == "" {
			continue
		}
		params[name] = strings.TrimSuffix(content, "\r\n")
	}
}

// partName pulls the name="…" token out of a part's Content-Disposition
// header.
func partName(headerBlock string) string {
	for _, line := range strings.Split(headerBlock, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(strings.ToLower(line), "content-disposition:") {
			continue
		}
		for _, token := range strings.Split(line, ";") {
			token = strings.TrimSpace(token)
			if !strings.HasPrefix(token, `name="`) {
				continue
			}
			rest := token[len(`name="`):]
			if end := strings.IndexByte(rest, '"'); end >= 0 {
				return rest[:end]
			}
		}
		return ""
	}
	return ""
}
