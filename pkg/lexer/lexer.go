// Package lexer provides tokenization for pointcut expressions.
//
// It performs character-by-character processing to produce tokens for the
// parser. Unrecognized characters are emitted as ILLEGAL tokens rather than
// failing the scan so the parser can report them with position context.
//
// Token Types:
//
//	IDENTIFIER  - Name segments (e.g., Foo, bar, get_value)
//	KEYWORD     - Predicates (execution, access, within, staticinitialization)
//	ATKEYWORD   - Annotation predicates (@execution, @within)
//	MODIFIER    - public, protected, private, static, final
//	VARIABLE    - $this
//	STAR/DSTAR  - * and ** wildcards
//	ARROW       - -> (instance member)
//	DCOLON      - :: (static member)
//	AND/OR/BANG - &&, ||, !
package lexer

import (
	"fmt"
	"strings"
)

// Lexer tokenizes pointcut source.
type Lexer struct {
	input  string // The source being tokenized
	pos    int    // Current position in input
	line   int    // Current line number (1-indexed)
	col    int    // Current column number (0-indexed)
	tokens []Token
}

// New creates a new Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{
		input:  input,
		pos:    0,
		line:   1,
		col:    0,
		tokens: make([]Token, 0),
	}
}

// Tokenize processes the entire input and returns all tokens, terminated by EOF.
func (l *Lexer) Tokenize() []Token {
	for !l.isAtEnd() {
		l.scanToken()
	}
	l.addTokenAt(EOF, "", l.pos, l.line, l.col)
	return l.tokens
}

// Tokenize is a convenience wrapper around New(input).Tokenize().
func Tokenize(input string) []Token {
	return New(input).Tokenize()
}

// Helper methods for character access and movement

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) advance() byte {
	ch := l.input[l.pos]
	l.pos++
	l.col++
	return ch
}

func (l *Lexer) addTokenAt(typ TokenType, value string, pos, line, col int) {
	l.tokens = append(l.tokens, NewToken(typ, value, pos, line, col))
}

// emit consumes n bytes and records them as a single token.
func (l *Lexer) emit(typ TokenType, n int) {
	start, col := l.pos, l.col
	for i := 0; i < n; i++ {
		l.advance()
	}
	l.addTokenAt(typ, l.input[start:l.pos], start, l.line, col)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// scanToken scans a single token from the current position.
func (l *Lexer) scanToken() {
	char := l.peek()
	next := l.peekNext()

	switch char {
	case ' ', '\t', '\r':
		l.advance()

	case '\n':
		l.advance()
		l.line++
		l.col = 0

	case '*':
		if next == '*' {
			l.emit(DSTAR, 2)
		} else {
			l.emit(STAR, 1)
		}

	case '|':
		if next == '|' {
			l.emit(OR, 2)
		} else {
			l.emit(PIPE, 1)
		}

	case '&':
		if next == '&' {
			l.emit(AND, 2)
		} else {
			l.emit(ILLEGAL, 1)
		}

	case '-':
		if next == '>' {
			l.emit(ARROW, 2)
		} else {
			l.emit(ILLEGAL, 1)
		}

	case ':':
		if next == ':' {
			l.emit(DCOLON, 2)
		} else {
			l.emit(ILLEGAL, 1)
		}

	case '!':
		l.emit(BANG, 1)
	case '(':
		l.emit(LPAREN, 1)
	case ')':
		l.emit(RPAREN, 1)
	case ',':
		l.emit(COMMA, 1)
	case '\\':
		l.emit(BACKSLASH, 1)
	case '.':
		l.emit(DOT, 1)
	case '/':
		l.emit(SLASH, 1)
	case '+':
		l.emit(PLUS, 1)

	case '@':
		l.scanPrefixed(ATKEYWORD)

	case '$':
		l.scanPrefixed(VARIABLE)

	default:
		if isAlphaNumeric(char) {
			l.scanWord()
			return
		}
		l.emit(ILLEGAL, 1)
	}
}

// scanPrefixed handles @name and $name.
func (l *Lexer) scanPrefixed(typ TokenType) {
	if !isAlpha(l.peekNext()) {
		l.emit(ILLEGAL, 1)
		return
	}
	n := 1
	for l.pos+n < len(l.input) && isAlphaNumeric(l.input[l.pos+n]) {
		n++
	}
	l.emit(typ, n)
}

// scanWord handles identifiers, keywords and modifiers. Digits are allowed
// at the start so package path segments like "v2" lex as one word.
func (l *Lexer) scanWord() {
	n := 0
	for l.pos+n < len(l.input) && isAlphaNumeric(l.input[l.pos+n]) {
		n++
	}
	word := l.input[l.pos : l.pos+n]
	typ := IDENTIFIER
	if kw, ok := Keywords[word]; ok {
		typ = kw
	}
	l.emit(typ, n)
}

// String returns a string representation of the lexer state (for debugging).
func (l *Lexer) String() string {
	return fmt.Sprintf("Lexer{pos=%d, line=%d, col=%d, tokens=%d}",
		l.pos, l.line, l.col, len(l.tokens))
}

// Join renders tokens back to source form, separated by single spaces where
// the original had whitespace. Used for diagnostics.
func Join(tokens []Token) string {
	var b strings.Builder
	prevEnd := -1
	for _, t := range tokens {
		if t.Type == EOF {
			break
		}
		if prevEnd >= 0 && t.Pos > prevEnd {
			b.WriteByte(' ')
		}
		b.WriteString(t.Value)
		prevEnd = t.Pos + len(t.Value)
	}
	return b.String()
}
