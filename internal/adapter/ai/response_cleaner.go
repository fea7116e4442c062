// Package ai turns free-form model output into JSON objects.
package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
	"github.com/fairyhunter13/policy-advisor/pkg/textx"
)

// ExcerptRunes bounds the raw model text kept on parse failures.
const ExcerptRunes = 1200

// ErrNoObject is returned when the text holds no complete JSON object.
var ErrNoObject = errors.New("no complete json object")

// UnparseableError reports model output that could not be read as a JSON object.
// It wraps domain.ErrSchemaInvalid.
type UnparseableError struct {
	Excerpt string
	Err     error
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("model output is not valid json: %v", e.Err)
}

// Unwrap lets errors.Is match domain.ErrSchemaInvalid and the parse cause.
func (e *UnparseableError) Unwrap() []error { return []error{domain.ErrSchemaInvalid, e.Err} }

// ResponseCleaner parses model output leniently: strict JSON first, then the
// first balanced object in the text, then that object with relaxed syntax repaired.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// Parse returns the JSON object held in text or an *UnparseableError.
func (rc *ResponseCleaner) Parse(text string) (map[string]any, error) {
	s := strings.TrimSpace(rc.StripCodeFences(text))
	if obj, err := decodeObject(s); err == nil {
		return obj, nil
	}
	sub, err := rc.ExtractObject(s)
	if err != nil {
		return nil, &UnparseableError{Excerpt: textx.Truncate(text, ExcerptRunes), Err: err}
	}
	if obj, err := decodeObject(sub); err == nil {
		return obj, nil
	}
	obj, err := decodeObject(rc.Relax(sub))
	if err != nil {
		return nil, &UnparseableError{Excerpt: textx.Truncate(text, ExcerptRunes), Err: err}
	}
	return obj, nil
}

// StripCodeFences returns the body of the first ```json (or bare ```) fence.
// Text without fences is returned unchanged.
func (rc *ResponseCleaner) StripCodeFences(s string) string {
	for _, open := range []string{"```json", "```"} {
		i := strings.Index(s, open)
		if i < 0 {
			continue
		}
		body := s[i+len(open):]
		if j := strings.Index(body, "```"); j >= 0 {
			body = body[:j]
		}
		return body
	}
	return s
}

// ExtractObject returns the substring from the first '{' to the '}' that
// closes it. Braces inside double-quoted strings are ignored and backslash
// escapes inside strings are honored.
func (rc *ResponseCleaner) ExtractObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoObject
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoObject
}

// Relax repairs the syntax slips models commonly make, outside of strings only:
// trailing commas before '}' or ']', single-quoted strings and bare object keys.
func (rc *ResponseCleaner) Relax(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	var quote byte
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
				c = '"'
			case c == '"' && quote == '\'':
				b.WriteByte('\\')
			}
			b.WriteByte(c)
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte('"')
		case c == ',' && closesNext(s, i+1):
			// drop trailing comma
		case isKeyStart(c) && expectsKey(b.String()):
			j := i
			for j < len(s) && isKeyChar(s[j]) {
				j++
			}
			if k := skipSpace(s, j); k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
				i = j - 1
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func closesNext(s string, from int) bool {
	k := skipSpace(s, from)
	return k < len(s) && (s[k] == '}' || s[k] == ']')
}

// expectsKey reports whether the last significant byte written opens a key position.
func expectsKey(written string) bool {
	t := strings.TrimRight(written, " \t\r\n")
	if t == "" {
		return false
	}
	last := t[len(t)-1]
	return last == '{' || last == ','
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r' || s[i] == '\n') {
		i++
	}
	return i
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKeyChar(c byte) bool { return isKeyStart(c) || (c >= '0' && c <= '9') }

func decodeObject(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, ErrNoObject
	}
	if dec.More() {
		return nil, errors.New("trailing data after json object")
	}
	return obj, nil
}

// UnparseableExcerpt returns the output excerpt carried by an
// *UnparseableError in err's chain.
func UnparseableExcerpt(err error) (string, bool) {
	var u *UnparseableError
	if !errors.As(err, &u) {
		return "", false
	}
	return u.Excerpt, true
}
