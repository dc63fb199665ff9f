// Package lexer provides tokenization for pointcut expressions.
package lexer

// TokenType represents the type of a token.
type TokenType string

const (
	// Words
	IDENTIFIER TokenType = "IDENTIFIER" // Type, member and package name segments (e.g., Foo, bar, _impl)
	KEYWORD    TokenType = "KEYWORD"    // Predicate names (e.g., execution, within)
	ATKEYWORD  TokenType = "ATKEYWORD"  // Annotation predicates (e.g., @execution)
	MODIFIER   TokenType = "MODIFIER"   // public, protected, private, static, final
	VARIABLE   TokenType = "VARIABLE"   // $this

	// Name pattern pieces
	STAR      TokenType = "STAR"      // *
	DSTAR     TokenType = "DSTAR"     // **
	BACKSLASH TokenType = "BACKSLASH" // \
	DOT       TokenType = "DOT"       // .
	SLASH     TokenType = "SLASH"     // /
	PLUS      TokenType = "PLUS"      // + (type and its supertypes)
	PIPE      TokenType = "PIPE"      // | (alternation)

	// Member selectors
	ARROW  TokenType = "ARROW"  // ->
	DCOLON TokenType = "DCOLON" // ::

	// Boolean operators
	OR   TokenType = "OR"   // ||
	AND  TokenType = "AND"  // &&
	BANG TokenType = "BANG" // !

	// Delimiters
	LPAREN TokenType = "LPAREN" // (
	RPAREN TokenType = "RPAREN" // )
	COMMA  TokenType = "COMMA"  // ,

	// Special tokens
	ILLEGAL TokenType = "ILLEGAL" // Unrecognized input
	EOF     TokenType = "EOF"     // End of input
)

// Keywords maps predicate names to their token type.
var Keywords = map[string]TokenType{
	"execution":            KEYWORD,
	"access":               KEYWORD,
	"within":               KEYWORD,
	"staticinitialization": KEYWORD,
	"public":               MODIFIER,
	"protected":            MODIFIER,
	"private":              MODIFIER,
	"static":               MODIFIER,
	"final":                MODIFIER,
}

// Token represents a single token from the lexer.
type Token struct {
	Type   TokenType `json:"type"`
	Value  string    `json:"value"`
	Pos    int       `json:"pos"` // Byte offset into the input
	Line   int       `json:"line"`
	Column int       `json:"col"`
}

// NewToken creates a new token with the given properties.
func NewToken(typ TokenType, value string, pos, line, col int) Token {
	return Token{
		Type:   typ,
		Value:  value,
		Pos:    pos,
		Line:   line,
		Column: col,
	}
}

// IsWord returns true if the token can be a segment of a name pattern.
// Keywords and modifiers are accepted so members may be named "access" or "static".
func (t Token) IsWord() bool {
	return t.Type == IDENTIFIER || t.Type == KEYWORD || t.Type == MODIFIER
}

// IsSeparator returns true if the token separates name segments.
func (t Token) IsSeparator() bool {
	switch t.Type {
	case BACKSLASH, DOT, SLASH:
		return true
	}
	return false
}

// IsOperator returns true if the token is a boolean operator.
func (t Token) IsOperator() bool {
	switch t.Type {
	case OR, AND, BANG:
		return true
	}
	return false
}

// Describe renders the token for error messages.
func (t Token) Describe() string {
	if t.Type == EOF {
		return "end of input"
	}
	return "'" + t.Value + "'"
}
