package matching

import (
	"regexp"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textmock/textmock/internal/registry"
	"github.com/textmock/textmock/pkg/mockfile"
)

// def builds a minimal definition for matcher tests; the response does not
// participate in matching.
func def(ordinal int, method string, segments ...mockfile.PathSegment) *mockfile.Definition {
	return &mockfile.Definition{
		Ordinal: ordinal,
		Request: mockfile.RequestPattern{
			Method: method,
			Path:   segments,
		},
		Response: mockfile.ResponseTemplate{Status: 200},
	}
}

func lit(v string) mockfile.PathSegment  { return mockfile.PathSegment{Value: v} }
func capt(n string) mockfile.PathSegment { return mockfile.PathSegment{Value: n, Capture: true} }

func TestMatchMethodAndPath(t *testing.T) {
	d := def(0, "GET", lit("users"))

	tests := []struct {
		name   string
		method string
		path   string
		want   bool
	}{
		{"exact", "GET", "/users", true},
		{"wrong method", "POST", "/users", false},
		{"wrong path", "GET", "/user", false},
		{"extra segment", "GET", "/users/42", false},
		{"trailing slash adds empty segment", "GET", "/users/", false},
		{"case sensitive path", "GET", "/Users", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Match(d, &mockfile.Request{Method: tt.method, Path: tt.path})
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchPathCaptures(t *testing.T) {
	d := def(0, "GET", lit("users"), capt("id"), lit("posts"), capt("post"))

	captures, ok := Match(d, &mockfile.Request{Method: "GET", Path: "/users/42/posts/7"})
	require.True(t, ok)
	require.Len(t, captures, 2)

	id, ok := captures.Lookup("id")
	require.True(t, ok)
	assert.Equal(t, "42", id)
	post, _ := captures.Lookup("post")
	assert.Equal(t, "7", post)
}

func TestMatchCaptureBindsEmptySegmentNever(t *testing.T) {
	d := def(0, "GET", lit("users"), capt("id"))
	// "/users/" splits into ["users", ""]; the capture binds the empty
	// string rather than failing, matching segment-count semantics.
	captures, ok := Match(d, &mockfile.Request{Method: "GET", Path: "/users/"})
	require.True(t, ok)
	v, _ := captures.Lookup("id")
	assert.Equal(t, "", v)
}

func TestMatchHeaderPredicates(t *testing.T) {
	exact := def(0, "GET", lit("a"))
	exact.Request.Headers = []mockfile.HeaderPredicate{
		{Name: "Accept", Kind: mockfile.HeaderExact, Value: "application/json"},
	}

	tests := []struct {
		name    string
		headers []mockfile.Header
		want    bool
	}{
		{"exact value", []mockfile.Header{{Name: "Accept", Value: "application/json"}}, true},
		{"name case-insensitive", []mockfile.Header{{Name: "accept", Value: "application/json"}}, true},
		{"value case-sensitive", []mockfile.Header{{Name: "Accept", Value: "Application/JSON"}}, false},
		{"absent", nil, false},
		{"any of multiple values", []mockfile.Header{
			{Name: "Accept", Value: "text/html"},
			{Name: "Accept", Value: "application/json"},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Match(exact, &mockfile.Request{Method: "GET", Path: "/a", Headers: tt.headers})
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchHeaderPresent(t *testing.T) {
	d := def(0, "GET", lit("a"))
	d.Request.Headers = []mockfile.HeaderPredicate{
		{Name: "Authorization", Kind: mockfile.HeaderPresent},
	}

	_, ok := Match(d, &mockfile.Request{
		Method:  "GET",
		Path:    "/a",
		Headers: []mockfile.Header{{Name: "authorization", Value: "anything"}},
	})
	assert.True(t, ok)

	_, ok = Match(d, &mockfile.Request{Method: "GET", Path: "/a"})
	assert.False(t, ok)
}

func TestMatchHeaderCapture(t *testing.T) {
	d := def(0, "GET", lit("a"))
	d.Request.Headers = []mockfile.HeaderPredicate{
		{Name: "X-Request-Id", Kind: mockfile.HeaderCapture, Capture: "rid"},
	}

	captures, ok := Match(d, &mockfile.Request{
		Method:  "GET",
		Path:    "/a",
		Headers: []mockfile.Header{{Name: "x-request-id", Value: "abc-123"}},
	})
	require.True(t, ok)
	v, _ := captures.Lookup("rid")
	assert.Equal(t, "abc-123", v)

	// Absent header fails the predicate entirely.
	_, ok = Match(d, &mockfile.Request{Method: "GET", Path: "/a"})
	assert.False(t, ok)
}

// jsonAssert compiles the JSONPath expression the way the parser does.
func jsonAssert(t *testing.T, key string, op mockfile.AssertOp, value string) mockfile.Assert {
	t.Helper()
	expr, err := jp.ParseString(key)
	require.NoError(t, err)
	return mockfile.Assert{Kind: mockfile.AssertJSONPath, Key: key, Path: expr, Op: op, Value: value}
}

func regexAssert(t *testing.T, kind mockfile.AssertKind, key, pattern string) mockfile.Assert {
	t.Helper()
	re, err := regexp.Compile(pattern)
	require.NoError(t, err)
	return mockfile.Assert{Kind: kind, Key: key, Op: mockfile.OpMatches, Value: pattern, Regex: re}
}

func TestMatchAsserts(t *testing.T) {
	base := &mockfile.Request{
		Method: "POST",
		Path:   "/a",
		Query:  "verbose=true&page=2",
		Headers: []mockfile.Header{
			{Name: "Authorization", Value: "Bearer tok"},
			{Name: "Cookie", Value: "session=abc123; theme=dark"},
		},
		Body: []byte(`{"name": "alice", "count": 5, "ok": true, "tags": ["x"]}`),
	}

	tests := []struct {
		name string
		a    mockfile.Assert
		want bool
	}{
		{"header equals", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Value: "Bearer tok"}, true},
		{"header equals mismatch", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Value: "Bearer other"}, false},
		{"header not equals", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Op: mockfile.OpNotEquals, Value: "Bearer other"}, true},
		{"header not equals same", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Op: mockfile.OpNotEquals, Value: "Bearer tok"}, false},
		{"header startsWith", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Op: mockfile.OpStartsWith, Value: "Bearer "}, true},
		{"header endsWith", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Op: mockfile.OpEndsWith, Value: "tok"}, true},
		{"header contains", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Op: mockfile.OpContains, Value: "arer"}, true},
		{"header contains mismatch", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "Authorization", Op: mockfile.OpContains, Value: "basic"}, false},
		{"header exists", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "authorization", Op: mockfile.OpExists}, true},
		{"header exists absent", mockfile.Assert{Kind: mockfile.AssertHeader, Key: "X-Nope", Op: mockfile.OpExists}, false},
		{"queryparam equals", mockfile.Assert{Kind: mockfile.AssertQueryParam, Key: "verbose", Value: "true"}, true},
		{"queryparam mismatch", mockfile.Assert{Kind: mockfile.AssertQueryParam, Key: "page", Value: "3"}, false},
		{"queryparam exists", mockfile.Assert{Kind: mockfile.AssertQueryParam, Key: "page", Op: mockfile.OpExists}, true},
		{"queryparam exists absent", mockfile.Assert{Kind: mockfile.AssertQueryParam, Key: "missing", Op: mockfile.OpExists}, false},
		{"cookie equals", mockfile.Assert{Kind: mockfile.AssertCookie, Key: "session", Value: "abc123"}, true},
		{"cookie mismatch", mockfile.Assert{Kind: mockfile.AssertCookie, Key: "session", Value: "other"}, false},
		{"cookie exists", mockfile.Assert{Kind: mockfile.AssertCookie, Key: "theme", Op: mockfile.OpExists}, true},
		{"cookie exists absent", mockfile.Assert{Kind: mockfile.AssertCookie, Key: "lang", Op: mockfile.OpExists}, false},
		{"cookie name case-sensitive", mockfile.Assert{Kind: mockfile.AssertCookie, Key: "Session", Op: mockfile.OpExists}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := def(0, "POST", lit("a"))
			d.Request.Asserts = []mockfile.Assert{tt.a}
			_, ok := Match(d, base)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchAssertRegex(t *testing.T) {
	base := &mockfile.Request{
		Method:  "GET",
		Path:    "/a",
		Headers: []mockfile.Header{{Name: "X-Version", Value: "v12"}},
	}

	d := def(0, "GET", lit("a"))
	d.Request.Asserts = []mockfile.Assert{regexAssert(t, mockfile.AssertHeader, "X-Version", `^v[0-9]+$`)}
	_, ok := Match(d, base)
	assert.True(t, ok)

	d.Request.Asserts = []mockfile.Assert{regexAssert(t, mockfile.AssertHeader, "X-Version", `^release-`)}
	_, ok = Match(d, base)
	assert.False(t, ok)
}

func TestMatchJSONPathAsserts(t *testing.T) {
	base := &mockfile.Request{
		Method: "POST",
		Path:   "/a",
		Body:   []byte(`{"name": "alice", "count": 5, "ok": true, "tags": ["x"]}`),
	}

	tests := []struct {
		name string
		a    mockfile.Assert
		want bool
	}{
		{"string", jsonAssert(t, "$.name", mockfile.OpEquals, "alice"), true},
		{"number normalized", jsonAssert(t, "$.count", mockfile.OpEquals, "5"), true},
		{"bool", jsonAssert(t, "$.ok", mockfile.OpEquals, "true"), true},
		{"exists", jsonAssert(t, "$.tags", mockfile.OpExists, ""), true},
		{"exists absent", jsonAssert(t, "$.nope", mockfile.OpExists, ""), false},
		{"mismatch", jsonAssert(t, "$.name", mockfile.OpEquals, "bob"), false},
		{"not equals", jsonAssert(t, "$.name", mockfile.OpNotEquals, "bob"), true},
		{"startsWith", jsonAssert(t, "$.name", mockfile.OpStartsWith, "al"), true},
		{"contains", jsonAssert(t, "$.name", mockfile.OpContains, "lic"), true},
		// Arrays and objects have no scalar form, so value predicates
		// never hold, not even against an empty operand.
		{"non-scalar never equals", jsonAssert(t, "$.tags", mockfile.OpEquals, ""), false},
		{"non-scalar never not-equals", jsonAssert(t, "$.tags", mockfile.OpNotEquals, "anything"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := def(0, "POST", lit("a"))
			d.Request.Asserts = []mockfile.Assert{tt.a}
			_, ok := Match(d, base)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchJSONPathNonJSONBody(t *testing.T) {
	d := def(0, "POST", lit("a"))
	d.Request.Asserts = []mockfile.Assert{jsonAssert(t, "$.name", mockfile.OpExists, "")}
	_, ok := Match(d, &mockfile.Request{Method: "POST", Path: "/a", Body: []byte("not json")})
	assert.False(t, ok)
}

func TestSelectFirstDefinedWins(t *testing.T) {
	first := def(0, "GET", lit("users"), capt("id"))
	second := def(1, "GET", lit("users"), lit("42"))
	reg := registry.Build([]*mockfile.Definition{first, second})

	got, captures := Select(reg, &mockfile.Request{Method: "GET", Path: "/users/42"})
	require.NotNil(t, got)
	assert.Same(t, first, got)
	v, _ := captures.Lookup("id")
	assert.Equal(t, "42", v)
}

func TestSelectSkipsNonMatching(t *testing.T) {
	a := def(0, "GET", lit("a"))
	b := def(1, "GET", lit("b"))
	reg := registry.Build([]*mockfile.Definition{a, b})

	got, _ := Select(reg, &mockfile.Request{Method: "GET", Path: "/b"})
	require.NotNil(t, got)
	assert.Same(t, b, got)
}

func TestSelectNoMatch(t *testing.T) {
	reg := registry.Build([]*mockfile.Definition{def(0, "GET", lit("a"))})

	got, captures := Select(reg, &mockfile.Request{Method: "GET", Path: "/z"})
	assert.Nil(t, got)
	assert.Nil(t, captures)

	got, _ = Select(reg, &mockfile.Request{Method: "DELETE", Path: "/a"})
	assert.Nil(t, got)
}
