// Package reflectmodel builds a structural model from live Go values.
//
// Reflection sees exported methods and fields only, and knows nothing about
// package-level functions or parameter names. The source therefore reports
// Method and Property as its only kinds.
package reflectmodel

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/chazu/weft/pkg/model"
)

// TagName is the struct tag listing a field's annotations, comma separated.
const TagName = "weft"

// Annotated can be implemented by a modelled type to attach type-level
// annotations.
type Annotated interface {
	WeftAnnotations() []string
}

var annotatedType = reflect.TypeOf((*Annotated)(nil)).Elem()

// Source is a model.Source over a fixed set of reflected types.
type Source struct {
	types []*model.Type
}

// New reflects over values. Each value is either an instance (pointer or
// not) of the type to model or a reflect.Type, which is how interfaces are
// passed: reflect.TypeOf((*I)(nil)).Elem().
func New(values ...any) (*Source, error) {
	var rts []reflect.Type
	seen := make(map[reflect.Type]bool)
	for i, v := range values {
		rt, ok := v.(reflect.Type)
		if !ok {
			rt = reflect.TypeOf(v)
		}
		if rt == nil {
			return nil, fmt.Errorf("reflectmodel: value %d is nil", i)
		}
		if rt.Kind() == reflect.Pointer {
			rt = rt.Elem()
		}
		if rt.Name() == "" {
			return nil, fmt.Errorf("reflectmodel: value %d has unnamed type %s", i, rt)
		}
		if !seen[rt] {
			seen[rt] = true
			rts = append(rts, rt)
		}
	}

	var ifaces []reflect.Type
	for _, rt := range rts {
		if rt.Kind() == reflect.Interface {
			ifaces = append(ifaces, rt)
		}
	}

	s := &Source{}
	for _, rt := range rts {
		s.types = append(s.types, describe(rt, ifaces))
	}
	sort.Slice(s.types, func(i, j int) bool { return s.types[i].QualifiedName() < s.types[j].QualifiedName() })
	return s, nil
}

// Types implements model.Source.
func (s *Source) Types() ([]*model.Type, error) { return s.types, nil }

// Kinds implements model.Source.
func (s *Source) Kinds() []model.Kind { return []model.Kind{model.Method, model.Property} }

func describe(rt reflect.Type, ifaces []reflect.Type) *model.Type {
	t := &model.Type{
		Name:        rt.Name(),
		Package:     rt.PkgPath(),
		IsInterface: rt.Kind() == reflect.Interface,
	}

	impl := reflect.PointerTo(rt)
	if t.IsInterface {
		impl = rt
	} else if impl.Implements(annotatedType) {
		t.Annotations = reflect.New(rt).Interface().(Annotated).WeftAnnotations()
	}

	for _, iface := range ifaces {
		if iface != rt && impl.Implements(iface) {
			t.Interfaces = append(t.Interfaces, qualified(iface))
		}
	}

	if rt.Kind() == reflect.Struct {
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if f.Anonymous {
				t.Parents = append(t.Parents, qualified(deref(f.Type)))
				continue
			}
			if !f.IsExported() {
				continue
			}
			t.Members = append(t.Members, model.Member{
				Name:        f.Name,
				Kind:        model.Property,
				Type:        typeString(f.Type),
				Annotations: tagAnnotations(f.Tag.Get(TagName)),
			})
		}
	}

	methods := reflect.PointerTo(rt)
	receiver := 1
	if t.IsInterface {
		methods, receiver = rt, 0
	}
	for i := 0; i < methods.NumMethod(); i++ {
		m := methods.Method(i)
		if m.Name == "WeftAnnotations" {
			continue
		}
		t.Members = append(t.Members, method(m, receiver))
	}
	return t
}

// method describes m. Function types of concrete methods carry the receiver
// as their first input; skip says how many inputs to drop.
func method(m reflect.Method, skip int) model.Member {
	ft := m.Type
	out := model.Member{Name: m.Name, Kind: model.Method}
	for i := skip; i < ft.NumIn(); i++ {
		in := ft.In(i)
		p := model.Parameter{Type: typeString(in), ByRef: in.Kind() == reflect.Pointer}
		if ft.IsVariadic() && i == ft.NumIn()-1 {
			p.Type, p.Variadic = typeString(in.Elem()), true
		}
		out.Params = append(out.Params, p)
	}
	for i := 0; i < ft.NumOut(); i++ {
		out.Results = append(out.Results, model.Parameter{Type: typeString(ft.Out(i))})
	}
	return out
}

func deref(rt reflect.Type) reflect.Type {
	if rt.Kind() == reflect.Pointer {
		return rt.Elem()
	}
	return rt
}

func qualified(rt reflect.Type) string {
	if rt.PkgPath() == "" {
		return rt.Name()
	}
	return rt.PkgPath() + "." + rt.Name()
}

// typeString writes rt with full import paths, the form the rest of the
// model uses.
func typeString(rt reflect.Type) string {
	if rt.Name() != "" {
		return qualified(rt)
	}
	switch rt.Kind() {
	case reflect.Pointer:
		return "*" + typeString(rt.Elem())
	case reflect.Slice:
		return "[]" + typeString(rt.Elem())
	case reflect.Array:
		return fmt.Sprintf("[%d]%s", rt.Len(), typeString(rt.Elem()))
	case reflect.Map:
		return "map[" + typeString(rt.Key()) + "]" + typeString(rt.Elem())
	case reflect.Chan:
		switch rt.ChanDir() {
		case reflect.RecvDir:
			return "<-chan " + typeString(rt.Elem())
		case reflect.SendDir:
			return "chan<- " + typeString(rt.Elem())
		}
		return "chan " + typeString(rt.Elem())
	case reflect.Interface:
		if rt.NumMethod() == 0 {
			return "any"
		}
	}
	return rt.String()
}

func tagAnnotations(tag string) []string {
	var out []string
	for _, a := range strings.Split(tag, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
