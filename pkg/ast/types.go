// Package ast defines the immutable pointcut expression tree produced by the parser.
package ast

import (
	"strings"
)

// Node is a pointcut expression. Nodes are never mutated after parsing.
type Node interface {
	pointcutNode()
	String() string
}

// Pos is a byte offset into the pointcut source.
type Pos int

// NamePattern is a glob over a qualified name. Alternatives are separated by
// '|' in source and stored separately.
type NamePattern struct {
	Alternatives []string
}

// Any reports whether the pattern matches every name.
func (p NamePattern) Any() bool {
	for _, alt := range p.Alternatives {
		if alt == "**" || alt == "*" {
			return true
		}
	}
	return false
}

func (p NamePattern) String() string {
	return strings.Join(p.Alternatives, "|")
}

// ClassPattern selects types by name. With Subtypes set ("Foo+"), a type
// also matches when one of its parents or interfaces matches.
type ClassPattern struct {
	Name     NamePattern
	Subtypes bool
}

func (p ClassPattern) String() string {
	if p.Subtypes {
		return p.Name.String() + "+"
	}
	return p.Name.String()
}

// Modifiers constrains visibility and finality. A zero value accepts anything.
type Modifiers struct {
	Visibility []string // Any of "public", "protected", "private"
	Final      bool
}

func (m Modifiers) String() string {
	var parts []string
	if len(m.Visibility) > 0 {
		parts = append(parts, strings.Join(m.Visibility, "|"))
	}
	if m.Final {
		parts = append(parts, "final")
	}
	return strings.Join(parts, " ")
}

// ParamPattern constrains a member's parameter list. A nil *ParamPattern
// or Any accepts every list; otherwise the arity must equal len(Types)
// and each type glob must match positionally.
type ParamPattern struct {
	Any   bool
	Types []NamePattern
}

func (p *ParamPattern) String() string {
	if p == nil || p.Any {
		return "(*)"
	}
	parts := make([]string, len(p.Types))
	for i, t := range p.Types {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Execution matches method execution: execution(public Foo->bar(*)) or,
// with Static set, execution(Foo::bar(*)).
type Execution struct {
	At        Pos
	Modifiers Modifiers
	Class     ClassPattern
	Member    NamePattern
	Static    bool
	Params    *ParamPattern
}

func (*Execution) pointcutNode() {}

func (e *Execution) String() string {
	sep := "->"
	if e.Static {
		sep = "::"
	}
	return "execution(" + prefix(e.Modifiers) + e.Class.String() + sep + e.Member.String() + e.Params.String() + ")"
}

// Access matches property access: access(public Foo->name).
type Access struct {
	At        Pos
	Modifiers Modifiers
	Class     ClassPattern
	Member    NamePattern
}

func (*Access) pointcutNode() {}

func (a *Access) String() string {
	return "access(" + prefix(a.Modifiers) + a.Class.String() + "->" + a.Member.String() + ")"
}

// Within matches every member of the selected types.
type Within struct {
	At    Pos
	Class ClassPattern
}

func (*Within) pointcutNode() {}

func (w *Within) String() string { return "within(" + w.Class.String() + ")" }

// AnnotationTarget selects whether an annotation is looked up on the member
// or on its owning type.
type AnnotationTarget int

const (
	OnMember AnnotationTarget = iota
	OnType
)

// Annotated matches elements carrying an annotation: @execution(Name) for
// members, @within(Name) for owning types.
type Annotated struct {
	At     Pos
	Target AnnotationTarget
	Name   NamePattern
}

func (*Annotated) pointcutNode() {}

func (a *Annotated) String() string {
	if a.Target == OnType {
		return "@within(" + a.Name.String() + ")"
	}
	return "@execution(" + a.Name.String() + ")"
}

// StaticInit matches static initializers of the selected types.
type StaticInit struct {
	At    Pos
	Class ClassPattern
}

func (*StaticInit) pointcutNode() {}

func (s *StaticInit) String() string { return "staticinitialization(" + s.Class.String() + ")" }

// Ref names a pointcut declared by an aspect: "Aspect->name".
type Ref struct {
	At     Pos
	Aspect string
	Name   string
}

func (*Ref) pointcutNode() {}

func (r *Ref) String() string { return r.Aspect + "->" + r.Name }

// And is the conjunction of two expressions.
type And struct {
	Left, Right Node
}

func (*And) pointcutNode() {}

func (a *And) String() string { return "(" + a.Left.String() + " && " + a.Right.String() + ")" }

// Or is the disjunction of two expressions.
type Or struct {
	Left, Right Node
}

func (*Or) pointcutNode() {}

func (o *Or) String() string { return "(" + o.Left.String() + " || " + o.Right.String() + ")" }

// Not negates an expression.
type Not struct {
	Operand Node
}

func (*Not) pointcutNode() {}

func (n *Not) String() string { return "!" + n.Operand.String() }

func prefix(m Modifiers) string {
	if s := m.String(); s != "" {
		return s + " "
	}
	return ""
}
