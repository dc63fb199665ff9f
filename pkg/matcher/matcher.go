// Package matcher evaluates pointcut expressions against structural elements.
//
// Matching is total and has no side effects: the same expression and element
// always produce the same answer, and no runtime state is consulted.
package matcher

import (
	"strings"

	"github.com/chazu/weft/pkg/ast"
	"github.com/chazu/weft/pkg/model"
)

// Matches reports whether el is selected by expr. Unresolved references
// never match.
func Matches(expr ast.Node, el model.Element) bool {
	switch n := expr.(type) {
	case *ast.And:
		return Matches(n.Left, el) && Matches(n.Right, el)
	case *ast.Or:
		return Matches(n.Left, el) || Matches(n.Right, el)
	case *ast.Not:
		return !Matches(n.Operand, el)

	case *ast.Execution:
		want := model.Method
		if n.Static {
			want = model.StaticMethod
		}
		return el.Kind() == want &&
			modifiersMatch(n.Modifiers, el.Member) &&
			classMatches(n.Class, el.Owner) &&
			globAny(n.Member.Alternatives, el.Member.Name) &&
			paramsMatch(n.Params, el.Parameters())

	case *ast.Access:
		return el.Kind() == model.Property &&
			modifiersMatch(n.Modifiers, el.Member) &&
			classMatches(n.Class, el.Owner) &&
			globAny(n.Member.Alternatives, el.Member.Name)

	case *ast.Within:
		return classMatches(n.Class, el.Owner)

	case *ast.StaticInit:
		return el.Kind() == model.StaticInit && classMatches(n.Class, el.Owner)

	case *ast.Annotated:
		annotations := el.Member.Annotations
		if n.Target == ast.OnType {
			annotations = el.Owner.Annotations
		}
		for _, a := range annotations {
			if globAny(n.Name.Alternatives, a) {
				return true
			}
		}
		return false
	}

	// *ast.Ref and anything unknown.
	return false
}

// MatchesType reports whether the class pattern selects t, ignoring members.
func MatchesType(p ast.ClassPattern, t *model.Type) bool {
	return classMatches(p, t)
}

func classMatches(p ast.ClassPattern, t *model.Type) bool {
	if nameMatches(p.Name.Alternatives, t.QualifiedName()) {
		return true
	}
	if !p.Subtypes {
		return false
	}
	for _, super := range t.Supertypes() {
		if nameMatches(p.Name.Alternatives, super) {
			return true
		}
	}
	return false
}

// nameMatches tries the qualified name and then the short name, so that
// "Foo" selects "example.com/app.Foo".
func nameMatches(alternatives []string, qualified string) bool {
	if globAny(alternatives, qualified) {
		return true
	}
	if i := strings.LastIndexAny(qualified, `./\`); i >= 0 {
		return globAny(alternatives, qualified[i+1:])
	}
	return false
}

func modifiersMatch(m ast.Modifiers, member *model.Member) bool {
	if m.Final && !member.Final {
		return false
	}
	if len(m.Visibility) == 0 {
		return true
	}
	vis := member.Visibility.String()
	for _, v := range m.Visibility {
		if v == vis {
			return true
		}
	}
	return false
}

func paramsMatch(p *ast.ParamPattern, params []model.Parameter) bool {
	if p == nil || p.Any {
		return true
	}
	if len(p.Types) != len(params) {
		return false
	}
	for i, t := range p.Types {
		if t.Any() {
			continue
		}
		if !globAny(t.Alternatives, params[i].Type) {
			return false
		}
	}
	return true
}
