// Package srcmodel builds a structural model from Go source with
// golang.org/x/tools/go/packages.
//
// Named types become model types. Their fields are properties and their
// declared methods are methods. Package-level functions returning T or *T
// are treated as T's static methods, following go/doc's constructor rule.
// Annotations are read from doc comment lines of the form "@Name".
package srcmodel

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/chazu/weft/pkg/model"
)

// LoadMode is the packages.Load mode the source needs.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo

// Source is a model.Source over loaded packages.
type Source struct {
	types []*model.Type
}

// Load reads the packages matched by patterns (default "./...") relative to dir.
func Load(dir string, patterns ...string) (*Source, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Mode:  LoadMode,
		Dir:   dir,
		Tests: false,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("srcmodel: loading packages: %w", err)
	}

	var errs []string
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e.Error())
		}
	})
	if len(errs) > 0 {
		return nil, fmt.Errorf("srcmodel: %d package errors, first: %s", len(errs), errs[0])
	}
	return FromPackages(dir, pkgs), nil
}

// FromPackages builds a source from packages already loaded with at least
// LoadMode. Locations are reported relative to dir.
func FromPackages(dir string, pkgs []*packages.Package) *Source {
	b := &builder{dir: dir, byObj: make(map[*types.TypeName]*model.Type)}
	for _, p := range pkgs {
		b.collectDocs(p)
	}
	for _, p := range pkgs {
		b.addTypes(p)
	}
	for _, p := range pkgs {
		b.addStatics(p)
	}
	b.linkInterfaces()

	sort.Slice(b.types, func(i, j int) bool { return b.types[i].QualifiedName() < b.types[j].QualifiedName() })
	return &Source{types: b.types}
}

// Types implements model.Source.
func (s *Source) Types() ([]*model.Type, error) { return s.types, nil }

// Kinds implements model.Source. Go has no per-type static initializers.
func (s *Source) Kinds() []model.Kind {
	return []model.Kind{model.Method, model.StaticMethod, model.Property}
}

type builder struct {
	dir   string
	docs  map[token.Pos]*ast.CommentGroup // Keyed by the declaring identifier
	types []*model.Type
	byObj map[*types.TypeName]*model.Type
	named []*types.TypeName
}

func (b *builder) collectDocs(p *packages.Package) {
	if b.docs == nil {
		b.docs = make(map[token.Pos]*ast.CommentGroup)
	}
	for _, f := range p.Syntax {
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				b.docs[d.Name.Pos()] = d.Doc
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						doc := s.Doc
						if doc == nil && len(d.Specs) == 1 {
							doc = d.Doc
						}
						b.docs[s.Name.Pos()] = doc
						b.collectFieldDocs(s.Type)
					}
				}
			}
		}
	}
}

func (b *builder) collectFieldDocs(expr ast.Expr) {
	var fields *ast.FieldList
	switch t := expr.(type) {
	case *ast.StructType:
		fields = t.Fields
	case *ast.InterfaceType:
		fields = t.Methods
	default:
		return
	}
	for _, f := range fields.List {
		for _, name := range f.Names {
			b.docs[name.Pos()] = f.Doc
		}
	}
}

func (b *builder) annotations(pos token.Pos) []string {
	doc := b.docs[pos]
	if doc == nil {
		return nil
	}
	var out []string
	for _, c := range doc.List {
		line := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if strings.HasPrefix(line, "@") && len(line) > 1 {
			out = append(out, strings.Fields(line[1:])[0])
		}
	}
	return out
}

func (b *builder) location(p *packages.Package, pos token.Pos) model.Location {
	position := p.Fset.Position(pos)
	if !position.IsValid() {
		return model.Location{}
	}
	file := position.Filename
	if rel, err := filepath.Rel(b.dir, file); err == nil && !strings.HasPrefix(rel, "..") {
		file = filepath.ToSlash(rel)
	}
	return model.Location{File: file, Line: position.Line}
}

func (b *builder) addTypes(p *packages.Package) {
	scope := p.Types.Scope()
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}

		t := &model.Type{
			Name:        tn.Name(),
			Package:     p.PkgPath,
			Annotations: b.annotations(tn.Pos()),
			Location:    b.location(p, tn.Pos()),
		}

		switch u := named.Underlying().(type) {
		case *types.Struct:
			for i := 0; i < u.NumFields(); i++ {
				f := u.Field(i)
				if f.Embedded() {
					t.Parents = append(t.Parents, typeString(deref(f.Type())))
					continue
				}
				t.Members = append(t.Members, model.Member{
					Name:        f.Name(),
					Kind:        model.Property,
					Visibility:  visibility(f.Name()),
					Type:        typeString(f.Type()),
					Annotations: b.annotations(f.Pos()),
					Location:    b.location(p, f.Pos()),
				})
			}
		case *types.Interface:
			t.IsInterface = true
			for i := 0; i < u.NumEmbeddeds(); i++ {
				t.Parents = append(t.Parents, typeString(u.EmbeddedType(i)))
			}
			for i := 0; i < u.NumExplicitMethods(); i++ {
				t.Members = append(t.Members, b.function(p, u.ExplicitMethod(i), model.Method))
			}
		}

		for i := 0; i < named.NumMethods(); i++ {
			t.Members = append(t.Members, b.function(p, named.Method(i), model.Method))
		}

		b.types = append(b.types, t)
		b.byObj[tn] = t
		b.named = append(b.named, tn)
	}
}

// addStatics attaches package-level functions to the type they construct.
// A function returning more than one local named type is left unattached.
func (b *builder) addStatics(p *packages.Package) {
	scope := p.Types.Scope()
	for _, name := range scope.Names() {
		fn, ok := scope.Lookup(name).(*types.Func)
		if !ok || name == "init" || name == "main" {
			continue
		}
		sig := fn.Type().(*types.Signature)

		var owner *model.Type
		ambiguous := false
		for i := 0; i < sig.Results().Len(); i++ {
			named, ok := deref(sig.Results().At(i).Type()).(*types.Named)
			if !ok {
				continue
			}
			t, ok := b.byObj[named.Obj()]
			if !ok || named.Obj().Pkg() != p.Types {
				continue
			}
			if owner != nil && owner != t {
				ambiguous = true
			}
			owner = t
		}
		if owner == nil || ambiguous || owner.IsInterface {
			continue
		}
		owner.Members = append(owner.Members, b.function(p, fn, model.StaticMethod))
	}
}

// linkInterfaces records which loaded interfaces each concrete type implements.
func (b *builder) linkInterfaces() {
	var ifaces []*types.TypeName
	for _, tn := range b.named {
		if iface, ok := tn.Type().Underlying().(*types.Interface); ok && iface.NumMethods() > 0 {
			ifaces = append(ifaces, tn)
		}
	}
	for _, tn := range b.named {
		if types.IsInterface(tn.Type()) {
			continue
		}
		ptr := types.NewPointer(tn.Type())
		for _, iface := range ifaces {
			if types.Implements(ptr, iface.Type().Underlying().(*types.Interface)) {
				t := b.byObj[tn]
				t.Interfaces = append(t.Interfaces, typeString(iface.Type()))
			}
		}
	}
}

func (b *builder) function(p *packages.Package, fn *types.Func, kind model.Kind) model.Member {
	sig := fn.Type().(*types.Signature)
	m := model.Member{
		Name:        fn.Name(),
		Kind:        kind,
		Visibility:  visibility(fn.Name()),
		Annotations: b.annotations(fn.Pos()),
		Location:    b.location(p, fn.Pos()),
	}
	for i := 0; i < sig.Params().Len(); i++ {
		v := sig.Params().At(i)
		param := model.Parameter{Name: v.Name(), Type: typeString(v.Type())}
		if _, ok := v.Type().(*types.Pointer); ok {
			param.ByRef = true
		}
		if sig.Variadic() && i == sig.Params().Len()-1 {
			if s, ok := v.Type().(*types.Slice); ok {
				param.Type, param.Variadic = typeString(s.Elem()), true
			}
		}
		m.Params = append(m.Params, param)
	}
	for i := 0; i < sig.Results().Len(); i++ {
		v := sig.Results().At(i)
		m.Results = append(m.Results, model.Parameter{Name: v.Name(), Type: typeString(v.Type())})
	}
	return m
}

func visibility(name string) model.Visibility {
	if token.IsExported(name) {
		return model.Public
	}
	return model.Private
}

func deref(t types.Type) types.Type {
	if p, ok := t.(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// typeString writes t with full import paths.
func typeString(t types.Type) string {
	return types.TypeString(t, nil)
}
