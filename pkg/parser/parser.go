// Package parser implements the pointcut expression parser.
//
// The grammar, from lowest to highest precedence:
//
//	expr      := and { "||" and }
//	and       := unary { "&&" unary }
//	unary     := "!" unary | primary
//	primary   := "(" expr ")" | predicate | reference
//	predicate := "execution" "(" modifiers class ("->" | "::") name params ")"
//	           | "access" "(" modifiers class "->" name ")"
//	           | "within" "(" class ")"
//	           | "staticinitialization" "(" class ")"
//	           | ("@execution" | "@within") "(" name ")"
//	reference := qualified "->" identifier
//	class     := name [ "+" ]
//	name      := glob { "|" glob }
//	params    := "(" [ name { "," name } ] ")"
//
// A glob is a run of adjacent identifiers, separators (\ . /) and wildcards
// (* **) with no whitespace in between.
package parser

import (
	"strings"

	"github.com/chazu/weft/pkg/ast"
	"github.com/chazu/weft/pkg/lexer"
)

// SelfToken is replaced by the declaring aspect's identity before lexing.
const SelfToken = "$this"

// Substitute replaces every SelfToken in src with aspectID.
func Substitute(src, aspectID string) string {
	return strings.ReplaceAll(src, SelfToken, aspectID)
}

// Parser holds the state for parsing a pointcut token stream.
type Parser struct {
	source string
	tokens []lexer.Token
	pos    int
}

// Parse parses a complete pointcut expression.
func Parse(src string) (ast.Node, error) {
	p := &Parser{source: src, tokens: lexer.Tokenize(src)}
	if p.current().Type == lexer.EOF {
		return nil, p.errorAt(p.current(), "empty pointcut", "execution", "access", "within", "staticinitialization", "@execution", "@within", "!", "(")
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); tok.Type != lexer.EOF {
		return nil, p.errorAt(tok, "trailing input after complete expression", "&&", "||", "end of input")
	}
	return node, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level pointcut constants.
func MustParse(src string) ast.Node {
	n, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return n
}

// =============================================================================
// Parser Utilities
// =============================================================================

// current returns the current token; the stream always ends in EOF.
func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

// advance moves to the next token and returns the consumed one.
func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type != lexer.EOF {
		p.pos++
	}
	return tok
}

// expect consumes a token of the given type or fails.
func (p *Parser) expect(typ lexer.TokenType, display, context string) (lexer.Token, error) {
	tok := p.current()
	if tok.Type != typ {
		return tok, p.errorAt(tok, context, display)
	}
	return p.advance(), nil
}

// adjacent reports whether the current token starts where the previous one ended.
func (p *Parser) adjacent() bool {
	if p.pos == 0 {
		return false
	}
	prev := p.tokens[p.pos-1]
	return p.current().Pos == prev.Pos+len(prev.Value)
}

// =============================================================================
// Boolean Structure
// =============================================================================

func (p *Parser) parseOr() (ast.Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == lexer.OR {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current().Type == lexer.AND {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if p.current().Type == lexer.BANG {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Operand: operand}, nil
	}
	return p.parsePrimary()
}

var primaryStarts = []string{"execution", "access", "within", "staticinitialization", "@execution", "@within", "!", "(", "pointcut reference"}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.current()

	switch tok.Type {
	case lexer.LPAREN:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN, "')'", "unclosed group"); err != nil {
			return nil, err
		}
		return inner, nil

	case lexer.KEYWORD:
		return p.parsePredicate()

	case lexer.ATKEYWORD:
		return p.parseAnnotated()

	case lexer.VARIABLE:
		return nil, p.errorAt(tok, "unresolved "+tok.Value+"; substitute the aspect name before parsing")

	case lexer.IDENTIFIER, lexer.BACKSLASH:
		return p.parseRef()

	case lexer.ILLEGAL:
		return nil, p.errorAt(tok, "unrecognized character")

	case lexer.MODIFIER:
		return nil, p.errorAt(tok, "modifiers are only allowed inside execution(...) or access(...)", primaryStarts...)

	default:
		return nil, p.errorAt(tok, "", primaryStarts...)
	}
}

// =============================================================================
// Predicates
// =============================================================================

func (p *Parser) parsePredicate() (ast.Node, error) {
	kw := p.advance()
	at := ast.Pos(kw.Pos)
	if _, err := p.expect(lexer.LPAREN, "'('", "predicate "+kw.Value+" needs an argument list"); err != nil {
		return nil, err
	}

	var node ast.Node
	switch kw.Value {
	case "execution":
		mods, static, err := p.parseModifiers()
		if err != nil {
			return nil, err
		}
		class, err := p.parseClassPattern()
		if err != nil {
			return nil, err
		}
		sel := p.current()
		switch sel.Type {
		case lexer.ARROW:
		case lexer.DCOLON:
			static = true
		default:
			return nil, p.errorAt(sel, "method pattern needs a member selector", "'->'", "'::'")
		}
		p.advance()
		member, err := p.parseNamePattern("method name pattern")
		if err != nil {
			return nil, err
		}
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		node = &ast.Execution{At: at, Modifiers: mods, Class: class, Member: member, Static: static, Params: params}

	case "access":
		mods, static, err := p.parseModifiers()
		if err != nil {
			return nil, err
		}
		if static {
			return nil, p.errorAt(p.tokens[p.pos-1], "property access does not take the static modifier")
		}
		class, err := p.parseClassPattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ARROW, "'->'", "property pattern needs '->'"); err != nil {
			return nil, err
		}
		member, err := p.parseNamePattern("property name pattern")
		if err != nil {
			return nil, err
		}
		node = &ast.Access{At: at, Modifiers: mods, Class: class, Member: member}

	case "within", "staticinitialization":
		class, err := p.parseClassPattern()
		if err != nil {
			return nil, err
		}
		if kw.Value == "within" {
			node = &ast.Within{At: at, Class: class}
		} else {
			node = &ast.StaticInit{At: at, Class: class}
		}

	default:
		return nil, p.errorAt(kw, "unknown predicate", "execution", "access", "within", "staticinitialization")
	}

	if _, err := p.expect(lexer.RPAREN, "')'", "unterminated "+kw.Value+"(...)"); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *Parser) parseAnnotated() (ast.Node, error) {
	kw := p.advance()
	var target ast.AnnotationTarget
	switch kw.Value {
	case "@execution":
		target = ast.OnMember
	case "@within":
		target = ast.OnType
	default:
		return nil, p.errorAt(kw, "unknown annotation predicate", "@execution", "@within")
	}
	if _, err := p.expect(lexer.LPAREN, "'('", "annotation predicate needs an argument"); err != nil {
		return nil, err
	}
	name, err := p.parseNamePattern("annotation name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN, "')'", "unterminated "+kw.Value+"(...)"); err != nil {
		return nil, err
	}
	return &ast.Annotated{At: ast.Pos(kw.Pos), Target: target, Name: name}, nil
}

// parseRef parses Aspect->name. A trailing parameter list means the user
// wrote a method pattern without execution(...), which is rejected.
func (p *Parser) parseRef() (ast.Node, error) {
	start := p.current()
	aspect, err := p.parseNamePattern("aspect name")
	if err != nil {
		return nil, err
	}
	if len(aspect.Alternatives) != 1 || strings.Contains(aspect.Alternatives[0], "*") {
		return nil, p.errorAt(start, "pointcut reference must name a single aspect without wildcards")
	}
	if _, err := p.expect(lexer.ARROW, "'->'", "bare name is not a pointcut; use execution(...), within(...) or Aspect->pointcut"); err != nil {
		return nil, err
	}
	name := p.current()
	if !name.IsWord() {
		return nil, p.errorAt(name, "incomplete pointcut reference", "pointcut name")
	}
	p.advance()
	if p.current().Type == lexer.LPAREN {
		return nil, p.errorAt(p.current(), "method pattern outside execution(...)")
	}
	return &ast.Ref{At: ast.Pos(start.Pos), Aspect: aspect.Alternatives[0], Name: name.Value}, nil
}

// =============================================================================
// Patterns
// =============================================================================

// parseModifiers parses "public|protected final static" style prefixes.
func (p *Parser) parseModifiers() (ast.Modifiers, bool, error) {
	var mods ast.Modifiers
	static := false
	for p.current().Type == lexer.MODIFIER {
		// Followed by a separator or selector, the word is part of the type pattern.
		if next := p.tokens[p.pos+1]; next.Type == lexer.ARROW || next.Type == lexer.DCOLON || next.IsSeparator() {
			break
		}
		tok := p.advance()
		switch tok.Value {
		case "static":
			static = true
		case "final":
			mods.Final = true
		default:
			mods.Visibility = append(mods.Visibility, tok.Value)
			for p.current().Type == lexer.PIPE {
				p.advance()
				alt, err := p.expect(lexer.MODIFIER, "visibility", "incomplete visibility alternative")
				if err != nil {
					return mods, false, err
				}
				if alt.Value != "public" && alt.Value != "protected" && alt.Value != "private" {
					return mods, false, p.errorAt(alt, "only visibilities may be combined with '|'")
				}
				mods.Visibility = append(mods.Visibility, alt.Value)
			}
		}
	}
	return mods, static, nil
}

func (p *Parser) parseClassPattern() (ast.ClassPattern, error) {
	name, err := p.parseNamePattern("type name pattern")
	if err != nil {
		return ast.ClassPattern{}, err
	}
	class := ast.ClassPattern{Name: name}
	if p.current().Type == lexer.PLUS && p.adjacent() {
		p.advance()
		class.Subtypes = true
	}
	return class, nil
}

// parseNamePattern parses one or more '|'-separated globs.
func (p *Parser) parseNamePattern(what string) (ast.NamePattern, error) {
	var pattern ast.NamePattern
	for {
		glob, err := p.parseGlob(what)
		if err != nil {
			return pattern, err
		}
		pattern.Alternatives = append(pattern.Alternatives, glob)
		if p.current().Type != lexer.PIPE {
			return pattern, nil
		}
		p.advance()
	}
}

// parseGlob consumes adjacent name pieces.
func (p *Parser) parseGlob(what string) (string, error) {
	var b strings.Builder
	first := true
	for {
		tok := p.current()
		piece := tok.IsWord() || tok.IsSeparator() || tok.Type == lexer.STAR || tok.Type == lexer.DSTAR
		if !piece || (!first && !p.adjacent()) {
			break
		}
		b.WriteString(tok.Value)
		p.advance()
		first = false
	}
	if first {
		return "", p.errorAt(p.current(), "expected "+what, "identifier", "'*'", "'**'")
	}
	return b.String(), nil
}

// parseParams parses a parameter list pattern. "(*)" and "(**)" accept any list.
func (p *Parser) parseParams() (*ast.ParamPattern, error) {
	if _, err := p.expect(lexer.LPAREN, "'('", "method pattern needs a parameter list"); err != nil {
		return nil, err
	}
	params := &ast.ParamPattern{}
	if p.current().Type == lexer.RPAREN {
		p.advance()
		return params, nil
	}
	for {
		t, err := p.parseNamePattern("parameter type pattern")
		if err != nil {
			return nil, err
		}
		params.Types = append(params.Types, t)
		if p.current().Type != lexer.COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RPAREN, "')'", "unterminated parameter list"); err != nil {
		return nil, err
	}
	if len(params.Types) == 1 && params.Types[0].Any() {
		params.Any = true
		params.Types = nil
	}
	return params, nil
}
