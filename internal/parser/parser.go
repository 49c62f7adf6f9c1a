// Package parser builds mock definitions from the lexer's token stream.
// Parsing is fail-fast: the first structural error aborts the whole load,
// so a configuration is either served completely or not at all.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/textmock/textmock/internal/lexer"
	"github.com/textmock/textmock/internal/render"
	"github.com/textmock/textmock/pkg/mockfile"
)

// Parse tokenizes and parses a complete mock source into an ordered
// sequence of definitions. The builtins set is consulted only for
// load-time placeholder validation; referencing a placeholder that is
// neither a declared capture nor a builtin is a *mockfile.ParseError.
func Parse(input string, builtins render.Builtins) ([]*mockfile.Definition, error) {
	toks, err := lexer.Scan(input)
	if err != nil {
		return nil, err
	}

	p := &parser{toks: toks, builtins: builtins}
	var defs []*mockfile.Definition
	for {
		p.skipBlanks()
		if p.peek().Kind == lexer.EOF {
			return defs, nil
		}
		def, err := p.parseDefinition(len(defs))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
}

// knownMethods are the request methods accepted on a request line.
// Uppercase is required; a lowercase word here usually means a stray body
// or header line, and the error should say so.
var knownMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true, "DELETE": true,
	"CONNECT": true, "OPTIONS": true, "TRACE": true, "PATCH": true,
}

type parser struct {
	toks     []lexer.Token
	i        int
	builtins render.Builtins
}

func (p *parser) peek() lexer.Token {
	return p.toks[p.i]
}

// peekAt looks n tokens ahead without consuming; the stream is always
// EOF-terminated so the clamp is safe.
func (p *parser) peekAt(n int) lexer.Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) next() lexer.Token {
	t := p.toks[p.i]
	if t.Kind != lexer.EOF {
		p.i++
	}
	return t
}

func (p *parser) skipBlanks() {
	for p.peek().Kind == lexer.Blank {
		p.next()
	}
}

func (p *parser) errExpected(expected string, found lexer.Token) error {
	return &mockfile.ParseError{
		Pos:      found.Pos(),
		Expected: expected,
		Found:    found.Describe(),
	}
}

func (p *parser) expect(kind lexer.Kind, expected string) (lexer.Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, p.errExpected(expected, t)
	}
	return p.next(), nil
}

// atHeaderLine reports whether the next line is "Name: value".
func (p *parser) atHeaderLine() bool {
	return p.peek().Kind == lexer.Word && p.peekAt(1).Kind == lexer.Colon
}

func (p *parser) parseDefinition(ordinal int) (*mockfile.Definition, error) {
	start := p.peek().Pos()

	req, err := p.parseRequest()
	if err != nil {
		return nil, err
	}

	p.skipBlanks()
	resp, err := p.parseResponse(req)
	if err != nil {
		return nil, err
	}

	return &mockfile.Definition{
		Ordinal:  ordinal,
		Request:  *req,
		Response: *resp,
		Span:     mockfile.Span{Start: start, End: p.peek().Pos()},
	}, nil
}

func (p *parser) parseRequest() (*mockfile.RequestPattern, error) {
	start := p.peek().Pos()
	method := p.peek()
	if method.Kind != lexer.Word || !knownMethods[method.Value] {
		return nil, p.errExpected("an HTTP method (e.g. GET, POST)", method)
	}
	p.next()

	pathTok, err := p.expect(lexer.Word, "a request path starting with '/'")
	if err != nil {
		return nil, err
	}
	segments, err := parsePathPattern(pathTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EOL, "end of request line"); err != nil {
		return nil, err
	}

	pattern := &mockfile.RequestPattern{
		Method:  method.Value,
		Path:    segments,
		RawPath: pathTok.Value,
	}

	// Header predicate lines.
	for p.atHeaderLine() {
		h, err := p.parseRequestHeader()
		if err != nil {
			return nil, err
		}
		pattern.Headers = append(pattern.Headers, h)
	}

	// Optional [Asserts] section.
	p.skipBlanks()
	if p.peek().Kind == lexer.Section {
		sec := p.next()
		if sec.Value != "Asserts" {
			return nil, p.errExpected("section [Asserts]", sec)
		}
		if _, err := p.expect(lexer.EOL, "end of section line"); err != nil {
			return nil, err
		}
		for {
			p.skipBlanks()
			if !p.atAssertLine() {
				break
			}
			a, err := p.parseAssert()
			if err != nil {
				return nil, err
			}
			pattern.Asserts = append(pattern.Asserts, a)
		}
	}

	if err := checkDuplicateCaptures(pattern, start); err != nil {
		return nil, err
	}
	return pattern, nil
}

// parseRequestHeader parses one "Name: value" predicate line. A value that
// is exactly one placeholder declares a capture predicate; anything else is
// an exact-value predicate.
func (p *parser) parseRequestHeader() (mockfile.HeaderPredicate, error) {
	name := p.next() // Word, guaranteed by atHeaderLine
	p.next()         // Colon
	value, err := p.expect(lexer.Text, "a header value")
	if err != nil {
		return mockfile.HeaderPredicate{}, err
	}
	if _, err := p.expect(lexer.EOL, "end of header line"); err != nil {
		return mockfile.HeaderPredicate{}, err
	}

	h := mockfile.HeaderPredicate{
		Name: name.Value,
		Span: mockfile.Span{Start: name.Pos(), End: value.Span.End},
	}
	if capture, ok := wholePlaceholder(value.Value); ok {
		if err := checkName(capture, value.Pos()); err != nil {
			return mockfile.HeaderPredicate{}, err
		}
		h.Kind = mockfile.HeaderCapture
		h.Capture = capture
		return h, nil
	}
	h.Kind = mockfile.HeaderExact
	h.Value = value.Value
	return h, nil
}

// assertKeywords maps assert line keywords to their query kind.
var assertKeywords = map[string]mockfile.AssertKind{
	"header":     mockfile.AssertHeader,
	"queryparam": mockfile.AssertQueryParam,
	"cookie":     mockfile.AssertCookie,
	"jsonpath":   mockfile.AssertJSONPath,
}

// assertOps maps assert operator words to predicate ops.
var assertOps = map[string]mockfile.AssertOp{
	"==":         mockfile.OpEquals,
	"!=":         mockfile.OpNotEquals,
	"exists":     mockfile.OpExists,
	"startsWith": mockfile.OpStartsWith,
	"endsWith":   mockfile.OpEndsWith,
	"contains":   mockfile.OpContains,
	"matches":    mockfile.OpMatches,
}

func (p *parser) atAssertLine() bool {
	t := p.peek()
	if t.Kind != lexer.Word {
		return false
	}
	_, ok := assertKeywords[t.Value]
	return ok
}

// parseAssert parses one line of an [Asserts] section:
//
//	header "Name" == "value"
//	header "Name" exists
//	queryparam "name" != "value"
//	cookie "name" contains "value"
//	jsonpath "$.expr" == value
//	jsonpath "$.expr" matches "regex"
//
// Queries are header, queryparam, cookie, jsonpath; predicates are ==, !=,
// exists, startsWith, endsWith, contains, matches. JSONPath expressions
// and regex patterns are compiled here, so an invalid one fails the load
// instead of silently never matching.
func (p *parser) parseAssert() (mockfile.Assert, error) {
	kw := p.next()
	kind := assertKeywords[kw.Value]

	key, err := p.expect(lexer.String, "a quoted query argument")
	if err != nil {
		return mockfile.Assert{}, err
	}

	a := mockfile.Assert{Kind: kind, Key: key.Value}

	if kind == mockfile.AssertJSONPath {
		expr, err := jp.ParseString(key.Value)
		if err != nil {
			return mockfile.Assert{}, &mockfile.ParseError{
				Pos:      key.Pos(),
				Expected: "a valid JSONPath expression",
				Found:    strconv.Quote(key.Value),
			}
		}
		a.Path = expr
	}

	opTok := p.peek()
	if opTok.Kind != lexer.Word {
		return mockfile.Assert{}, p.errExpected(`an assert operator such as "==" or "exists"`, opTok)
	}
	op, ok := assertOps[opTok.Value]
	if !ok {
		return mockfile.Assert{}, p.errExpected(`an assert operator such as "==" or "exists"`, opTok)
	}
	p.next()
	a.Op = op

	if op != mockfile.OpExists {
		val := p.peek()
		switch val.Kind {
		case lexer.String, lexer.Word:
			p.next()
			a.Value = val.Value
		default:
			return mockfile.Assert{}, p.errExpected("a predicate value", val)
		}
		if op == mockfile.OpMatches {
			re, err := regexp.Compile(a.Value)
			if err != nil {
				return mockfile.Assert{}, &mockfile.ParseError{
					Pos:      val.Pos(),
					Expected: "a valid regular expression",
					Found:    strconv.Quote(a.Value),
				}
			}
			a.Regex = re
		}
	}

	end, err := p.expect(lexer.EOL, "end of assert line")
	if err != nil {
		return mockfile.Assert{}, err
	}
	a.Span = mockfile.Span{Start: kw.Pos(), End: end.Pos()}
	return a, nil
}

func (p *parser) parseResponse(req *mockfile.RequestPattern) (*mockfile.ResponseTemplate, error) {
	kw := p.peek()
	if kw.Kind != lexer.Word || kw.Value != "HTTP" {
		return nil, p.errExpected("HTTP status line (e.g. HTTP 200)", kw)
	}
	p.next()

	statusTok, err := p.expect(lexer.Word, "a 3-digit HTTP status code")
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(statusTok)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EOL, "end of status line"); err != nil {
		return nil, err
	}

	resp := &mockfile.ResponseTemplate{Status: status}

	for p.atHeaderLine() {
		name := p.next()
		p.next() // Colon
		value, err := p.expect(lexer.Text, "a header value")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.EOL, "end of header line"); err != nil {
			return nil, err
		}
		tmpl, err := parseTemplate(value.Value, value.Pos())
		if err != nil {
			return nil, err
		}
		resp.Headers = append(resp.Headers, mockfile.HeaderTemplate{
			Name:  name.Value,
			Value: tmpl,
		})
	}

	p.skipBlanks()
	if p.peek().Kind == lexer.Body {
		body := p.next()
		if _, err := p.expect(lexer.EOL, "end of body literal"); err != nil {
			return nil, err
		}
		// Template positions start just past the opening backtick.
		base := body.Pos()
		base.Column++
		base.Offset++
		tmpl, err := parseTemplate(body.Value, base)
		if err != nil {
			return nil, err
		}
		tmpl.Seal()
		resp.Body = &tmpl
	}

	if err := p.validatePlaceholders(req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func parseStatus(tok lexer.Token) (int, error) {
	if len(tok.Value) != 3 {
		return 0, &mockfile.ParseError{
			Pos:      tok.Pos(),
			Expected: "a 3-digit HTTP status code",
			Found:    tok.Describe(),
		}
	}
	status, err := strconv.Atoi(tok.Value)
	if err != nil || status < 100 || status > 599 {
		return 0, &mockfile.ParseError{
			Pos:      tok.Pos(),
			Expected: "an HTTP status code between 100 and 599",
			Found:    tok.Describe(),
		}
	}
	return status, nil
}

// validatePlaceholders enforces the load-time rule that every placeholder
// in the response references a declared capture or a builtin. Catching
// this here means rendering cannot fail for authoring mistakes.
func (p *parser) validatePlaceholders(req *mockfile.RequestPattern, resp *mockfile.ResponseTemplate) error {
	captures := make(map[string]bool)
	for _, name := range req.CaptureNames() {
		captures[name] = true
	}

	check := func(t *mockfile.Template) error {
		for _, seg := range t.Segments {
			if seg.Placeholder == "" {
				continue
			}
			if captures[seg.Placeholder] || p.builtins.Has(seg.Placeholder) {
				continue
			}
			return &mockfile.ParseError{
				Pos:      seg.Pos,
				Expected: "a placeholder naming a declared capture or built-in",
				Found:    `"{{` + seg.Placeholder + `}}"`,
			}
		}
		return nil
	}

	for i := range resp.Headers {
		if err := check(&resp.Headers[i].Value); err != nil {
			return err
		}
	}
	if resp.Body != nil {
		if err := check(resp.Body); err != nil {
			return err
		}
	}
	return nil
}

// parsePathPattern splits a path into segments, turning `{name}` segments
// into capture slots. Literal and capture segments may mix arbitrarily.
func parsePathPattern(tok lexer.Token) ([]mockfile.PathSegment, error) {
	raw := tok.Value
	if !strings.HasPrefix(raw, "/") {
		return nil, &mockfile.ParseError{
			Pos:      tok.Pos(),
			Expected: "a request path starting with '/'",
			Found:    tok.Describe(),
		}
	}

	parts := strings.Split(raw, "/")[1:]
	segments := make([]mockfile.PathSegment, 0, len(parts))
	for _, part := range parts {
		open := strings.HasPrefix(part, "{")
		closed := strings.HasSuffix(part, "}") && len(part) > 1
		switch {
		case open && closed:
			name := part[1 : len(part)-1]
			if err := checkName(name, tok.Pos()); err != nil {
				return nil, err
			}
			segments = append(segments, mockfile.PathSegment{Value: name, Capture: true})
		case open || closed:
			return nil, &mockfile.ParseError{
				Pos:      tok.Pos(),
				Expected: "a capture segment of the form {name}",
				Found:    strconv.Quote(part),
			}
		default:
			segments = append(segments, mockfile.PathSegment{Value: part})
		}
	}
	return segments, nil
}

func checkDuplicateCaptures(req *mockfile.RequestPattern, pos mockfile.Pos) error {
	seen := make(map[string]bool)
	for _, name := range req.CaptureNames() {
		if seen[name] {
			return &mockfile.ParseError{
				Pos:      pos,
				Expected: "distinct capture names",
				Found:    strconv.Quote(name),
			}
		}
		seen[name] = true
	}
	return nil
}

// checkName validates a capture or placeholder name: non-empty, and made of
// letters, digits, and ._- only.
func checkName(name string, pos mockfile.Pos) error {
	bad := name == ""
	for i := 0; !bad && i < len(name); i++ {
		c := name[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '_', c == '.', c == '-':
		default:
			bad = true
		}
	}
	if bad {
		return &mockfile.ParseError{
			Pos:      pos,
			Expected: "a capture name (letters, digits, '.', '_', '-')",
			Found:    strconv.Quote(name),
		}
	}
	return nil
}
