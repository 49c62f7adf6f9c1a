package mockfile

import "fmt"

// LexError reports a malformed character stream, such as an unterminated
// backtick body literal. Always fatal to the load.
type LexError struct {
	Pos    Pos
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Reason)
}

// ParseError reports a structurally invalid mock definition, or a response
// placeholder referencing an undeclared capture. Always fatal to the load.
type ParseError struct {
	Pos      Pos
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("%s: expected %s", e.Pos, e.Expected)
	}
	return fmt.Sprintf("%s: expected %s, found %s", e.Pos, e.Expected, e.Found)
}
