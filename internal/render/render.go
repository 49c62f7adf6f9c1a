// Package render turns a matched definition's response template into a
// concrete response. Templates were compiled into literal/placeholder
// segments at load time, so rendering is a single tight loop: literal
// spans are copied (or, for fully static bodies, shared without copying),
// placeholder spans resolve from the request's captures or the builtin
// registry.
package render

import (
	"bytes"
	"fmt"

	"github.com/textmock/textmock/pkg/mockfile"
)

// Error reports a placeholder with no resolution at render time. Parser
// validation makes this unreachable for well-formed loads; seeing one
// means an internal invariant was violated, and the caller must surface
// it, not swallow it.
type Error struct {
	Placeholder string
}

func (e *Error) Error() string {
	return fmt.Sprintf("unresolved placeholder %q at render time", e.Placeholder)
}

// Response renders the matched definition's response with the given
// captures. The returned body may alias load-time template bytes when the
// body is fully static; callers must treat it as read-only.
func Response(def *mockfile.Definition, captures mockfile.Captures, builtins Builtins) (*mockfile.Response, error) {
	resp := &mockfile.Response{Status: def.Response.Status}

	if n := len(def.Response.Headers); n > 0 {
		resp.Headers = make([]mockfile.Header, 0, n)
	}
	for i := range def.Response.Headers {
		h := &def.Response.Headers[i]
		value, err := String(&h.Value, captures, builtins)
		if err != nil {
			return nil, err
		}
		resp.Headers = append(resp.Headers, mockfile.Header{Name: h.Name, Value: value})
	}

	if def.Response.Body != nil {
		body, err := Body(def.Response.Body, captures, builtins)
		if err != nil {
			return nil, err
		}
		resp.Body = body
	}
	return resp, nil
}

// Body renders a body template to bytes. Static templates return the
// pre-sealed byte slice shared across requests; templates with
// placeholders allocate exactly one growable buffer.
func Body(t *mockfile.Template, captures mockfile.Captures, builtins Builtins) ([]byte, error) {
	if t.StaticBytes != nil {
		return t.StaticBytes, nil
	}
	if t.Static() {
		return []byte(t.Raw), nil
	}

	var buf bytes.Buffer
	buf.Grow(t.LiteralLen() + 16*len(t.Segments))
	for _, seg := range t.Segments {
		if seg.Placeholder == "" {
			buf.WriteString(seg.Literal)
			continue
		}
		value, err := resolve(seg.Placeholder, captures, builtins)
		if err != nil {
			return nil, err
		}
		buf.WriteString(value)
	}
	return buf.Bytes(), nil
}

// String renders a header value template.
func String(t *mockfile.Template, captures mockfile.Captures, builtins Builtins) (string, error) {
	if t.Static() {
		return t.Raw, nil
	}
	b, err := Body(t, captures, builtins)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// resolve looks a placeholder up in the captures first, then the builtin
// registry. Captures shadow builtins.
func resolve(name string, captures mockfile.Captures, builtins Builtins) (string, error) {
	if value, ok := captures.Lookup(name); ok {
		return value, nil
	}
	if fn, ok := builtins[name]; ok {
		return fn(), nil
	}
	return "", &Error{Placeholder: name}
}
