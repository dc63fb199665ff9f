package parser

import (
	"fmt"
	"strings"

	"github.com/chazu/weft/pkg/lexer"
)

// SyntaxError describes malformed pointcut source.
type SyntaxError struct {
	Source   string   // The pointcut being parsed
	Pos      int      // Byte offset of the offending token
	Line     int      // 1-indexed
	Column   int      // 0-indexed
	Found    string   // Description of the offending token
	Expected []string // What the parser would have accepted
	Message  string   // Extra context
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at %d:%d", e.Line, e.Column)
	if e.Found != "" {
		fmt.Fprintf(&b, ": unexpected %s", e.Found)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected one of: %s)", strings.Join(e.Expected, ", "))
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " in `%s`", e.Source)
	}
	return b.String()
}

// errorAt builds a SyntaxError pointing at tok.
func (p *Parser) errorAt(tok lexer.Token, message string, expected ...string) *SyntaxError {
	return &SyntaxError{
		Source:   p.source,
		Pos:      tok.Pos,
		Line:     tok.Line,
		Column:   tok.Column,
		Found:    tok.Describe(),
		Expected: expected,
		Message:  message,
	}
}
