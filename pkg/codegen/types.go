package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
)

// typeCode renders a Go type expression. Named types are written with their
// full import path ("example.com/app/store.Item", "*bytes.Buffer") and
// become qualified references. Expressions this does not understand (func
// types, inline structs) are emitted verbatim.
func typeCode(s string) *jen.Statement {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return jen.Id("any")
	case strings.HasPrefix(s, "*"):
		return jen.Op("*").Add(typeCode(s[1:]))
	case strings.HasPrefix(s, "[]"):
		return jen.Index().Add(typeCode(s[2:]))
	case strings.HasPrefix(s, "map["):
		if end := matchBracket(s, 3); end > 0 {
			return jen.Map(typeCode(s[4:end])).Add(typeCode(s[end+1:]))
		}
	case strings.HasPrefix(s, "["):
		if end := matchBracket(s, 0); end > 0 {
			return jen.Index(jen.Id(s[1:end])).Add(typeCode(s[end+1:]))
		}
	case strings.HasPrefix(s, "chan "):
		return jen.Chan().Add(typeCode(s[5:]))
	case strings.HasPrefix(s, "<-chan "):
		return jen.Op("<-").Chan().Add(typeCode(s[7:]))
	}

	if strings.ContainsAny(s, "({ ") {
		return jen.Id(s)
	}
	if i := strings.LastIndex(s, "."); i > 0 {
		return jen.Qual(s[:i], s[i+1:])
	}
	return jen.Id(s)
}

// matchBracket returns the index of the ']' closing the '[' at open.
func matchBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isContext reports whether a parameter type is context.Context.
func isContext(typ string) bool {
	return typ == "context.Context"
}

// capitalize converts first letter to uppercase.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// uncapitalize converts first letter to lowercase.
func uncapitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func isExported(name string) bool {
	return name != "" && unicode.IsUpper([]rune(name)[0])
}

// reserved names are used by generated bodies and cannot be parameter names.
var reserved = map[string]bool{
	"p": true, "res": true, "err": true, "out": true, "receiver": true, "args": true, "target": true, "v": true,
}

// paramNames picks local names for parameters. The context parameter keeps
// its name; anything empty, blank or clashing with generated locals is
// renamed by position.
func paramNames(params []paramInfo) []string {
	names := make([]string, len(params))
	used := make(map[string]bool)
	for i, p := range params {
		name := p.Name
		switch {
		case p.ctx && (name == "" || name == "_"):
			name = "ctx"
		case name == "" || name == "_" || reserved[name] || used[name] || isResultName(name):
			name = positional(i, used)
		case name == "ctx" && !p.ctx:
			name = positional(i, used)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// positional returns a<i>, or the next free a<n> when a parameter already
// carries that name.
func positional(i int, used map[string]bool) string {
	name := fmt.Sprintf("a%d", i)
	for n := i + 1; used[name]; n++ {
		name = fmt.Sprintf("a%d", n)
	}
	return name
}

// isResultName reports whether name looks like a generated result local (r0, r1, ...).
func isResultName(name string) bool {
	if len(name) < 2 || name[0] != 'r' {
		return false
	}
	for _, c := range name[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
