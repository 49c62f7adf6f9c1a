package parser

import (
	"strings"

	"github.com/textmock/textmock/pkg/mockfile"
)

const (
	placeholderOpen  = "{{"
	placeholderClose = "}}"
)

// parseTemplate compiles raw template text into literal and placeholder
// segments. This happens once at load time; rendering never re-parses.
// base is the source position of raw's first byte, so segment positions in
// multi-line bodies stay exact.
func parseTemplate(raw string, base mockfile.Pos) (mockfile.Template, error) {
	var segments []mockfile.Segment
	rest := raw
	off := 0

	for {
		open := strings.Index(rest, placeholderOpen)
		if open < 0 {
			if rest != "" {
				segments = append(segments, mockfile.Segment{
					Literal: rest,
					Pos:     posAt(base, raw, off),
				})
			}
			break
		}

		if open > 0 {
			segments = append(segments, mockfile.Segment{
				Literal: rest[:open],
				Pos:     posAt(base, raw, off),
			})
		}

		phPos := posAt(base, raw, off+open)
		after := rest[open+len(placeholderOpen):]
		closing := strings.Index(after, placeholderClose)
		if closing < 0 {
			return mockfile.Template{}, &mockfile.ParseError{
				Pos:      phPos,
				Expected: `"}}" closing the placeholder`,
				Found:    "end of template",
			}
		}

		name := strings.TrimSpace(after[:closing])
		if err := checkName(name, phPos); err != nil {
			return mockfile.Template{}, err
		}
		segments = append(segments, mockfile.Segment{
			Placeholder: name,
			Pos:         phPos,
		})

		consumed := open + len(placeholderOpen) + closing + len(placeholderClose)
		off += consumed
		rest = rest[consumed:]
	}

	return mockfile.Template{Segments: segments, Raw: raw}, nil
}

// wholePlaceholder reports whether a header value is exactly one
// placeholder, which declares a header capture predicate.
func wholePlaceholder(value string) (string, bool) {
	if !strings.HasPrefix(value, placeholderOpen) || !strings.HasSuffix(value, placeholderClose) {
		return "", false
	}
	inner := value[len(placeholderOpen) : len(value)-len(placeholderClose)]
	if strings.Contains(inner, placeholderOpen) || strings.Contains(inner, placeholderClose) {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

// posAt advances base over text[:off], accounting for newlines.
func posAt(base mockfile.Pos, text string, off int) mockfile.Pos {
	pos := base
	pos.Offset += off
	for i := 0; i < off; i++ {
		if text[i] == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}
