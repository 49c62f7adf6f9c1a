// Package mockfile defines the data model for plain-text mock definitions:
// the parsed Definition (request pattern + response template), the template
// representation shared by header values and bodies, and the request/response
// descriptors exchanged with the transport layer.
package mockfile

import (
	"fmt"
	"regexp"

	"github.com/ohler55/ojg/jp"
)

// Pos is a position in a mock definition source, 1-based line and column
// plus the byte offset into the input.
type Pos struct {
	Line   int
	Column int
	Offset int
}

// String formats the position as "line:column" for diagnostics.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Pos
	End   Pos
}

// Definition is one request-pattern/response-template pair parsed from a
// mock file. Definitions are immutable after parsing.
type Definition struct {
	// Ordinal is the zero-based position of the definition across all
	// loaded sources, used as the first-match-wins tie-break.
	Ordinal int

	Request  RequestPattern
	Response ResponseTemplate

	// Span covers the whole definition block for diagnostics.
	Span Span
}

// RequestPattern is the matching rule a definition requires of an incoming
// request.
type RequestPattern struct {
	Method string

	// Path holds the parsed path pattern, one entry per segment.
	Path []PathSegment

	// RawPath is the path as written, kept for logging and diagnostics.
	RawPath string

	// Headers are header predicates; all must hold (AND semantics).
	Headers []HeaderPredicate

	// Asserts are additional predicates from an [Asserts] section.
	Asserts []Assert
}

// CaptureNames returns the names of all captures the pattern declares,
// in declaration order (path segments first, then header captures).
func (p *RequestPattern) CaptureNames() []string {
	var names []string
	for _, seg := range p.Path {
		if seg.Capture {
			names = append(names, seg.Value)
		}
	}
	for _, h := range p.Headers {
		if h.Kind == HeaderCapture {
			names = append(names, h.Capture)
		}
	}
	return names
}

// PathSegment is one `/`-separated element of a path pattern. A capture
// segment matches any single request path segment and binds it.
type PathSegment struct {
	// Value is the literal text, or the capture name when Capture is set.
	Value   string
	Capture bool
}

// HeaderPredicateKind discriminates the ways a header predicate can hold.
type HeaderPredicateKind int

const (
	// HeaderExact requires the header to be present with an exact value.
	HeaderExact HeaderPredicateKind = iota
	// HeaderPresent requires the header to be present with any value. The
	// text format expresses presence through `header "X" exists` asserts;
	// this kind exists for definitions built programmatically.
	HeaderPresent
	// HeaderCapture requires presence and binds the value to a capture.
	HeaderCapture
)

// HeaderPredicate is a single request-header requirement. Names compare
// case-insensitively.
type HeaderPredicate struct {
	Name    string
	Kind    HeaderPredicateKind
	Value   string // exact value, for HeaderExact
	Capture string // capture name, for HeaderCapture
	Span    Span
}

// AssertKind identifies the query an assert line runs against the request.
type AssertKind int

const (
	AssertHeader AssertKind = iota
	AssertQueryParam
	AssertCookie
	AssertJSONPath
)

// AssertOp is the predicate applied to the queried value. The zero value
// is equality.
type AssertOp int

const (
	OpEquals AssertOp = iota
	OpNotEquals
	OpExists
	OpStartsWith
	OpEndsWith
	OpContains
	OpMatches
)

// Assert is one line of an [Asserts] section: a query (header, query
// parameter, cookie, or JSONPath over a JSON body) combined with a
// predicate over the queried value.
type Assert struct {
	Kind AssertKind

	// Key is the header name, query parameter name, cookie name, or
	// JSONPath expression.
	Key string

	// Op selects the predicate; Value is its operand for all ops except
	// OpExists.
	Op    AssertOp
	Value string

	// Path is the compiled JSONPath expression for AssertJSONPath.
	// Compiled once at load time; an invalid expression is a ParseError.
	Path jp.Expr

	// Regex is the compiled pattern for OpMatches, compiled at load time.
	Regex *regexp.Regexp

	Span Span
}

// ResponseTemplate is the status, headers, and body rendered when a
// definition is selected.
type ResponseTemplate struct {
	Status  int
	Headers []HeaderTemplate
	Body    *Template // nil when the definition declares no body
}

// HeaderTemplate is a response header whose value is a template.
type HeaderTemplate struct {
	Name  string
	Value Template
}
