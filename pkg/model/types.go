// Package model defines the read-only structural view of a program that
// pointcuts are matched against.
package model

import (
	"fmt"
	"strings"
)

// Kind is the kind of an interceptable member.
type Kind int

const (
	Method Kind = iota
	StaticMethod
	Property
	StaticInit
)

func (k Kind) String() string {
	switch k {
	case StaticMethod:
		return "static"
	case Property:
		return "property"
	case StaticInit:
		return "staticinit"
	default:
		return "method"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "method", "":
		return Method, nil
	case "static":
		return StaticMethod, nil
	case "property":
		return Property, nil
	case "staticinit":
		return StaticInit, nil
	}
	return Method, fmt.Errorf("unknown member kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Visibility of a member.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Visibility) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Visibility) UnmarshalText(b []byte) error {
	switch string(b) {
	case "public", "":
		*v = Public
	case "protected":
		*v = Protected
	case "private":
		*v = Private
	default:
		return fmt.Errorf("unknown visibility %q", string(b))
	}
	return nil
}

// Location is a position in a source file.
type Location struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

func (l Location) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Parameter describes one formal parameter or result.
type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`     // Go type expression, e.g. "int", "*bytes.Buffer"
	ByRef    bool   `json:"byRef,omitempty"`    // Passed by reference (a pointer in Go)
	Variadic bool   `json:"variadic,omitempty"` // Final ...T parameter
}

// Member is a method, static function, property or static initializer.
type Member struct {
	Name        string      `json:"name"`
	Kind        Kind        `json:"kind"`
	Visibility  Visibility  `json:"visibility"`
	Final       bool        `json:"final,omitempty"`
	Params      []Parameter `json:"params,omitempty"`
	Results     []Parameter `json:"results,omitempty"`
	Type        string      `json:"type,omitempty"` // Property type
	Annotations []string    `json:"annotations,omitempty"`
	Location    Location    `json:"location"`
}

// IsStatic reports whether the member is bound to its type rather than an instance.
func (m *Member) IsStatic() bool {
	return m.Kind == StaticMethod || m.Kind == StaticInit
}

// HasAnnotation checks if the member carries a specific annotation.
func (m *Member) HasAnnotation(name string) bool {
	for _, a := range m.Annotations {
		if a == name {
			return true
		}
	}
	return false
}

// ReturnsError reports whether the last result is the error interface.
func (m *Member) ReturnsError() bool {
	return len(m.Results) > 0 && m.Results[len(m.Results)-1].Type == "error"
}

// Type is a named type (class) with its members.
type Type struct {
	Name        string   `json:"name"`              // Short name: "Counter"
	Package     string   `json:"package,omitempty"` // Import path: "example.com/app/store"
	Parents     []string `json:"parents,omitempty"` // Embedded or parent types, qualified
	Interfaces  []string `json:"interfaces,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
	IsInterface bool     `json:"isInterface,omitempty"`
	Members     []Member `json:"members"`
	Location    Location `json:"location"`
}

// QualifiedName returns the fully qualified name of the type.
// Returns "example.com/app.Counter" for packaged types, "Counter" otherwise.
func (t *Type) QualifiedName() string {
	if t.Package != "" {
		return t.Package + "." + t.Name
	}
	return t.Name
}

// PackageName returns the last element of the import path.
func (t *Type) PackageName() string {
	if i := strings.LastIndex(t.Package, "/"); i >= 0 {
		return t.Package[i+1:]
	}
	return t.Package
}

// Member finds a member by name and kind.
func (t *Type) Member(name string, kind Kind) (*Member, bool) {
	for i := range t.Members {
		if t.Members[i].Name == name && t.Members[i].Kind == kind {
			return &t.Members[i], true
		}
	}
	return nil, false
}

// Supertypes returns the qualified names of parents and interfaces.
func (t *Type) Supertypes() []string {
	out := make([]string, 0, len(t.Parents)+len(t.Interfaces))
	out = append(out, t.Parents...)
	return append(out, t.Interfaces...)
}

// Elements returns one Element per member, in declaration order.
func (t *Type) Elements() []Element {
	out := make([]Element, len(t.Members))
	for i := range t.Members {
		out[i] = Element{Owner: t, Member: &t.Members[i]}
	}
	return out
}
