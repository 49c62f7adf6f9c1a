package matching

import "github.com/textmock/textmock/pkg/mockfile"

// matchHeader evaluates one header predicate. Header names compare
// case-insensitively; values compare exactly. For multi-valued headers
// the predicate holds if any value satisfies it.
func matchHeader(h mockfile.HeaderPredicate, req *mockfile.Request, captures mockfile.Captures) (mockfile.Captures, bool) {
	values := req.HeaderValues(h.Name)
	if len(values) == 0 {
		return nil, false
	}

	switch h.Kind {
	case mockfile.HeaderPresent:
		return captures, true
	case mockfile.HeaderCapture:
		return append(captures, mockfile.Capture{Name: h.Capture, Value: values[0]}), true
	default: // HeaderExact
		for _, v := range values {
			if v == h.Value {
				return captures, true
			}
		}
		return nil, false
	}
}
