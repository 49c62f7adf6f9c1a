// Package matching selects the mock definition that applies to an incoming
// request. Selection is deterministic: candidates are tried in file order
// and the first full match wins, so earlier-defined mocks always take
// precedence over later, possibly more specific ones.
package matching

import (
	"github.com/textmock/textmock/internal/registry"
	"github.com/textmock/textmock/pkg/mockfile"
)

// Select returns the first definition in file order that fully matches the
// request, along with the captures bound during matching. A nil definition
// means no mock applies; that is a normal outcome, not an error.
func Select(reg *registry.Registry, req *mockfile.Request) (*mockfile.Definition, mockfile.Captures) {
	for _, def := range reg.CandidatesFor(req.Method) {
		if captures, ok := Match(def, req); ok {
			return def, captures
		}
	}
	return nil, nil
}

// Match evaluates a single definition against a request. The boolean
// result distinguishes "no match" from a match with zero captures.
func Match(def *mockfile.Definition, req *mockfile.Request) (mockfile.Captures, bool) {
	if def.Request.Method != req.Method {
		return nil, false
	}

	captures, ok := matchPath(def.Request.Path, req.Path)
	if !ok {
		return nil, false
	}

	for _, h := range def.Request.Headers {
		captures, ok = matchHeader(h, req, captures)
		if !ok {
			return nil, false
		}
	}

	for _, a := range def.Request.Asserts {
		if !matchAssert(a, req) {
			return nil, false
		}
	}

	return captures, true
}
