package mockfile

// Segment is one element of a parsed template: either a literal span or a
// placeholder reference. Templates are compiled once at load time so that
// rendering is a single pass with no re-parsing.
type Segment struct {
	// Literal holds the literal text when Placeholder is empty.
	Literal string

	// Placeholder is the capture or built-in name referenced by this
	// segment; empty for literal segments.
	Placeholder string

	// Pos is where the segment starts in the source, for diagnostics.
	Pos Pos
}

// Template is an ordered sequence of literal and placeholder segments.
type Template struct {
	Segments []Segment

	// Raw is the template text as written.
	Raw string

	// StaticBytes is the sealed byte form of a fully literal template,
	// shared read-only across requests so static bodies are emitted
	// without re-copying. Nil when the template has placeholders.
	StaticBytes []byte
}

// Seal precomputes StaticBytes for a fully literal template. Called once
// at load time.
func (t *Template) Seal() {
	if t.Static() {
		t.StaticBytes = []byte(t.Raw)
	}
}

// Static reports whether the template contains no placeholders. Static
// templates render as the raw text with no copying.
func (t *Template) Static() bool {
	for _, s := range t.Segments {
		if s.Placeholder != "" {
			return false
		}
	}
	return true
}

// Placeholders returns the placeholder names referenced by the template,
// in order of appearance.
func (t *Template) Placeholders() []string {
	var names []string
	for _, s := range t.Segments {
		if s.Placeholder != "" {
			names = append(names, s.Placeholder)
		}
	}
	return names
}

// LiteralLen is the total length of the literal segments, used to presize
// the render buffer.
func (t *Template) LiteralLen() int {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Literal)
	}
	return n
}

// Literal builds a template consisting of a single literal span. Used by
// tests and by programmatic definition construction.
func Literal(text string) Template {
	return Template{
		Segments: []Segment{{Literal: text}},
		Raw:      text,
	}
}
