// Package jsonval wraps JSON parsing and serialization for the HTTP engine.
//
// Request body decoding and response helpers go through this package instead
// of touching the JSON library directly, so the engine depends on one small
// surface: Parse, Marshal, Quote and the Document flattening rules.
package jsonval

import (
	"errors"
	"sort"
	"strconv"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// ErrNotObject is returned by Flatten when the document root is not a JSON
// object.
var ErrNotObject = errors.New("jsonval: document root is not an object")

// Document is a parsed JSON value. The root may be an object, an array or a
// scalar.
type Document struct {
	value any
}

// Parse parses data into a Document. Numbers decode to int64 or float64,
// objects to map[string]any, arrays to []any.
func Parse(data []byte) (*Document, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Document{value: v}, nil
}

// Value returns the decoded root value.
func (d *Document) Value() any {
	return d.value
}

// IsObject reports whether the root is a JSON object.
func (d *Document) IsObject() bool {
	_, ok := d.value.(map[string]any)
	return ok
}

// IsArray reports whether the root is a JSON array.
func (d *Document) IsArray() bool {
	_, ok := d.value.([]any)
	return ok
}

// JSON renders the document back to compact JSON with sorted object keys.
func (d *Document) JSON() string {
	return Marshal(d.value)
}

// Flatten converts an object document into flat dotted-key parameters.
// Nested objects contribute "outer.inner" keys, arrays are kept as compact
// JSON text, scalars are rendered with ScalarString.
func (d *Document) Flatten() (map[string]string, error) {
	obj, ok := d.value.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	params := make(map[string]string)
	flattenInto(params, obj, "")
	return params, nil
}

func flattenInto(params map[string]string, obj map[string]any, prefix string) {
	for key, value := range obj {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flattenInto(params, v, name)
		case []any:
			params[name] = Marshal(v)
		default:
			params[name] = ScalarString(v)
		}
	}
}

// ScalarString renders a scalar JSON value the way form parameters are
// stored: strings verbatim, booleans as "true"/"false", null as the empty
// string, numbers without a trailing exponent where possible.
func ScalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return Marshal(v)
	}
}

// Marshal renders v as compact JSON with object keys in sorted order, so
// serialized bodies are deterministic.
func Marshal(v any) string {
	return oj.JSON(v, &ojg.Options{Sort: true})
}

// Quote renders s as a JSON string literal, including the surrounding
// quotes.
func Quote(s string) string {
	return oj.JSON(s)
}

// SortedKeys returns the keys of m in sorted order. Response helpers use it
// to emit headers and merged success fields deterministically.
func SortedKeys[M ~map[string]string](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
