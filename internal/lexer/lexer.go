package lexer

import (
	"fmt"
	"strings"

	"github.com/textmock/textmock/pkg/mockfile"
)

// Scan tokenizes a complete mock definition source. It returns the full
// token stream (terminated by an EOF token) or a *mockfile.LexError for
// malformed input such as an unterminated backtick literal.
//
// Blank lines surface as Blank tokens, every other content line ends with
// EOL, and full-line comments (a '#' after optional indentation) produce no
// tokens at all while still advancing positions.
func Scan(input string) ([]Token, error) {
	s := &scanner{input: input, line: 1, col: 1}
	return s.run()
}

type scanner struct {
	input string
	off   int
	line  int
	col   int

	tokens []Token
}

func (s *scanner) pos() mockfile.Pos {
	return mockfile.Pos{Line: s.line, Column: s.col, Offset: s.off}
}

func (s *scanner) eof() bool {
	return s.off >= len(s.input)
}

func (s *scanner) peek() byte {
	return s.input[s.off]
}

// advance consumes one byte, keeping line/column bookkeeping exact.
func (s *scanner) advance() byte {
	c := s.input[s.off]
	s.off++
	if c == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return c
}

func (s *scanner) emit(kind Kind, value string, start mockfile.Pos) {
	s.tokens = append(s.tokens, Token{
		Kind:  kind,
		Value: value,
		Span:  mockfile.Span{Start: start, End: s.pos()},
	})
}

func (s *scanner) errorf(pos mockfile.Pos, format string, args ...any) error {
	return &mockfile.LexError{Pos: pos, Reason: fmt.Sprintf(format, args...)}
}

func (s *scanner) run() ([]Token, error) {
	for !s.eof() {
		if err := s.scanLine(); err != nil {
			return nil, err
		}
	}
	s.emit(EOF, "", s.pos())
	return s.tokens, nil
}

// scanLine consumes exactly one source line (or one body literal spanning
// several lines) and emits its tokens.
func (s *scanner) scanLine() error {
	lineStart := s.pos()
	s.skipSpaces()

	if s.eof() {
		return nil
	}

	switch s.peek() {
	case '\n':
		s.advance()
		s.emit(Blank, "", lineStart)
		return nil
	case '#':
		s.skipToEOL()
		s.consumeNewline()
		return nil
	}

	emitted := false
	for !s.eof() && s.peek() != '\n' {
		s.skipSpaces()
		if s.eof() || s.peek() == '\n' {
			break
		}

		start := s.pos()
		switch c := s.peek(); {
		case c == '[':
			if err := s.scanSection(start); err != nil {
				return err
			}
		case c == '`':
			if err := s.scanBody(start); err != nil {
				return err
			}
		case c == '"':
			if err := s.scanString(start); err != nil {
				return err
			}
		case c == ':':
			s.advance()
			s.emit(Colon, ":", start)
			s.scanText()
		default:
			s.scanWord(start)
		}
		emitted = true
	}

	s.consumeNewline()
	if emitted {
		s.emit(EOL, "", s.pos())
	}
	return nil
}

// scanSection lexes a bracketed section name such as [Asserts].
func (s *scanner) scanSection(start mockfile.Pos) error {
	s.advance() // '['
	var b strings.Builder
	for !s.eof() && s.peek() != ']' && s.peek() != '\n' {
		b.WriteByte(s.advance())
	}
	if s.eof() || s.peek() != ']' {
		return s.errorf(start, "unterminated section name")
	}
	s.advance() // ']'
	name := b.String()
	if name == "" {
		return s.errorf(start, "empty section name")
	}
	s.emit(Section, name, start)
	return nil
}

// scanBody lexes a backtick-delimited literal, which may span lines. No
// escape sequences are recognized; the first closing backtick ends it.
func (s *scanner) scanBody(start mockfile.Pos) error {
	s.advance() // opening '`'
	contentStart := s.off
	for !s.eof() && s.peek() != '`' {
		s.advance()
	}
	if s.eof() {
		return s.errorf(start, "unterminated body literal")
	}
	value := s.input[contentStart:s.off]
	s.advance() // closing '`'
	s.emit(Body, value, start)
	return nil
}

func (s *scanner) scanString(start mockfile.Pos) error {
	s.advance() // opening '"'
	contentStart := s.off
	for !s.eof() && s.peek() != '"' && s.peek() != '\n' {
		s.advance()
	}
	if s.eof() || s.peek() != '"' {
		return s.errorf(start, "unterminated string")
	}
	value := s.input[contentStart:s.off]
	s.advance() // closing '"'
	s.emit(String, value, start)
	return nil
}

// scanText captures the remainder of the line after a header colon as a
// single trimmed token. Emitted even when empty, so "Name:" parses as a
// header with an empty value.
func (s *scanner) scanText() {
	s.skipSpaces()
	start := s.pos()
	contentStart := s.off
	for !s.eof() && s.peek() != '\n' {
		s.advance()
	}
	value := strings.TrimRight(s.input[contentStart:s.off], " \t\r")
	s.emit(Text, value, start)
}

func (s *scanner) scanWord(start mockfile.Pos) {
	contentStart := s.off
	for !s.eof() {
		c := s.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == ':' || c == '"' {
			break
		}
		s.advance()
	}
	s.emit(Word, s.input[contentStart:s.off], start)
}

func (s *scanner) skipSpaces() {
	for !s.eof() && (s.peek() == ' ' || s.peek() == '\t' || s.peek() == '\r') {
		s.advance()
	}
}

func (s *scanner) skipToEOL() {
	for !s.eof() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *scanner) consumeNewline() {
	if !s.eof() && s.peek() == '\n' {
		s.advance()
	}
}
