package matching

import (
	"strings"

	"github.com/textmock/textmock/pkg/mockfile"
)

// matchPath aligns a request path against a path pattern segment by
// segment. Literal segments must match exactly (case-sensitive), capture
// segments match any single segment and bind it. Segment counts must match
// exactly: there is no "rest of path" wildcard.
func matchPath(pattern []mockfile.PathSegment, path string) (mockfile.Captures, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	parts := strings.Split(path, "/")[1:]
	if len(parts) != len(pattern) {
		return nil, false
	}

	var captures mockfile.Captures
	for i, seg := range pattern {
		if seg.Capture {
			captures = append(captures, mockfile.Capture{Name: seg.Value, Value: parts[i]})
			continue
		}
		if seg.Value != parts[i] {
			return nil, false
		}
	}
	return captures, true
}
