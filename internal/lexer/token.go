// Package lexer tokenizes plain-text mock definition sources. It is a pure
// function of the input bytes and tracks exact byte/line/column positions
// for every token so the parser can produce precise diagnostics.
package lexer

import (
	"fmt"

	"github.com/textmock/textmock/pkg/mockfile"
)

// Kind classifies a token.
type Kind int

const (
	// Word is a run of non-whitespace bytes excluding ':' and '"'.
	// Methods, paths, status codes, section keywords, and the "=="
	// operator of assert lines all surface as words.
	Word Kind = iota

	// Colon is a ':' immediately following a word, i.e. a header
	// name/value separator.
	Colon

	// Text is the remainder of a line after a header colon, with
	// surrounding whitespace trimmed. May be empty.
	Text

	// String is a double-quoted string; Value holds the unquoted text.
	String

	// Section is a bracketed section name such as [Asserts]; Value holds
	// the name without brackets.
	Section

	// Body is a backtick-delimited literal; Value holds the text between
	// the backticks, which may span multiple lines.
	Body

	// EOL terminates every non-blank content line.
	EOL

	// Blank is emitted once per blank line.
	Blank

	// EOF terminates the stream.
	EOF
)

var kindNames = map[Kind]string{
	Word:    "word",
	Colon:   "':'",
	Text:    "text",
	String:  "string",
	Section: "section",
	Body:    "body literal",
	EOL:     "end of line",
	Blank:   "blank line",
	EOF:     "end of input",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Token is one classified lexical unit with its source span.
type Token struct {
	Kind  Kind
	Value string
	Span  mockfile.Span
}

// Pos returns the token's start position.
func (t Token) Pos() mockfile.Pos {
	return t.Span.Start
}

// Describe renders the token for "found ..." error messages.
func (t Token) Describe() string {
	switch t.Kind {
	case Word, String, Section:
		return fmt.Sprintf("%q", t.Value)
	default:
		return t.Kind.String()
	}
}
