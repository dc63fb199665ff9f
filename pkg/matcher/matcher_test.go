package matcher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/parser"
)

func fixture() []model.Element {
	foo := &model.Type{
		Name:        "Foo",
		Package:     "example.com/app",
		Interfaces:  []string{"example.com/app.Barer"},
		Annotations: []string{"Service"},
		Members: []model.Member{
			{Name: "bar", Kind: model.Method, Params: []model.Parameter{{Name: "x", Type: "int"}}, Results: []model.Parameter{{Type: "int"}}},
			{Name: "baz", Kind: model.Method, Visibility: model.Protected, Final: true},
			{Name: "getName", Kind: model.Method, Annotations: []string{"Loggable"}},
			{Name: "setName", Kind: model.Method, Params: []model.Parameter{{Name: "v", Type: "string"}}},
			{Name: "New", Kind: model.StaticMethod, Params: []model.Parameter{{Name: "buf", Type: "*bytes.Buffer", ByRef: true}}},
			{Name: "name", Kind: model.Property, Type: "string"},
			{Name: "init", Kind: model.StaticInit},
		},
	}
	other := &model.Type{
		Name:    "FooBar",
		Package: "example.com/app/sub",
		Members: []model.Member{
			{Name: "bar", Kind: model.Method, Visibility: model.Private},
		},
	}
	return append(foo.Elements(), other.Elements()...)
}

func find(t *testing.T, els []model.Element, qualified string) model.Element {
	t.Helper()
	for _, el := range els {
		if el.QualifiedName() == qualified {
			return el
		}
	}
	t.Fatalf("no element %s", qualified)
	return model.Element{}
}

func TestMatches(t *testing.T) {
	els := fixture()
	bar := "example.com/app.Foo->bar"
	baz := "example.com/app.Foo->baz"
	get := "example.com/app.Foo->getName"
	set := "example.com/app.Foo->setName"
	ctor := "example.com/app.Foo::New"
	prop := "example.com/app.Foo->name"
	init := "example.com/app.Foo::init"
	subBar := "example.com/app/sub.FooBar->bar"

	tests := []struct {
		pointcut string
		want     []string
	}{
		{`execution(public Foo->bar(*))`, []string{bar}},
		{`execution(Foo*->bar(*))`, []string{bar, subBar}},
		{`execution(public Foo*->bar(*))`, []string{bar}},
		{`execution(protected Foo->*(*))`, []string{baz}},
		{`execution(final Foo->*(*))`, []string{baz}},
		{`execution(Foo->get*|set*(*))`, []string{get, set}},
		{`execution(Foo->*())`, []string{baz, get}},
		{`execution(Foo->*(string))`, []string{set}},
		{`execution(Foo->*(int|string))`, []string{bar, set}},
		{`execution(Foo::*(*))`, []string{ctor}},
		{`execution(Foo::New(*bytes.Buffer))`, []string{ctor}},
		{`execution(example.com/app.Foo->bar(*))`, []string{bar}},
		{`execution(example.com/*.Foo->bar(*))`, []string{bar}},
		{`execution(example.com/*.FooBar->bar(*))`, nil},
		{`execution(example.com/**.Foo*->bar(*))`, []string{bar, subBar}},
		{`access(Foo->name)`, []string{prop}},
		{`access(Foo->bar)`, nil},
		{`staticinitialization(Foo)`, []string{init}},
		{`within(FooBar)`, []string{subBar}},
		{`within(Barer)`, nil},
		{`within(Barer+)`, []string{bar, baz, get, set, ctor, prop, init}},
		{`@execution(Loggable)`, []string{get}},
		{`@within(Service) && execution(*->bar(*))`, []string{bar}},
		{`within(Foo) && !execution(Foo->*(*))`, []string{ctor, prop, init}},
		{`access(Foo->name) || staticinitialization(Foo)`, []string{prop, init}},
		{`Other->ref`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.pointcut, func(t *testing.T) {
			expr := parser.MustParse(tt.pointcut)
			var got []string
			for _, el := range els {
				if Matches(expr, el) {
					got = append(got, el.QualifiedName())
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}

	// Sanity check that the fixture keys are what the table assumes.
	for _, q := range []string{bar, baz, get, set, ctor, prop, init, subBar} {
		find(t, els, q)
	}
}

func TestBooleanLaws(t *testing.T) {
	pointcuts := []string{
		`execution(public Foo->bar(*))`,
		`execution(Foo->*(*))`,
		`within(FooBar)`,
		`access(Foo->*)`,
		`@execution(Loggable)`,
		`staticinitialization(**)`,
		`execution(protected **->*(*))`,
	}
	els := fixture()

	for _, a := range pointcuts {
		for _, b := range pointcuts {
			and := parser.MustParse(fmt.Sprintf("%s && %s", a, b))
			or := parser.MustParse(fmt.Sprintf("%s || %s", a, b))
			notA := parser.MustParse("!" + a)
			pa, pb := parser.MustParse(a), parser.MustParse(b)

			for _, el := range els {
				ma, mb := Matches(pa, el), Matches(pb, el)
				assert.Equal(t, ma && mb, Matches(and, el), "%s && %s on %s", a, b, el)
				assert.Equal(t, ma || mb, Matches(or, el), "%s || %s on %s", a, b, el)
				assert.Equal(t, !ma, Matches(notA, el), "!%s on %s", a, el)
			}
		}
	}
}

func TestMatchesIsDeterministic(t *testing.T) {
	expr := parser.MustParse(`execution(Foo*->bar(*)) || within(Barer+)`)
	for _, el := range fixture() {
		first := Matches(expr, el)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, Matches(expr, el))
		}
	}
}

func TestGlob(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"Foo*", "FooBar", true},
		{"Foo*", "BarFoo", false},
		{"Foo*", "Foo", true},
		{"*Foo", "BarFoo", true},
		{"*", "", true},
		{"", "", true},
		{"", "a", false},
		{"Foo", "Foo", true},
		{"Foo", "Foobar", false},
		{"Foo*", `Foo\Bar`, false},
		{"Foo**", `Foo\Bar`, true},
		{`Demo\*`, `Demo\Foo`, true},
		{`Demo\*`, `Demo\Foo\Bar`, false},
		{`Demo\**`, `Demo\Foo\Bar`, true},
		{"app.*", "app.Foo", true},
		{"app.*", "app.sub.Foo", false},
		{"**.Foo", "example.com/app.Foo", true},
		{"example.com/*", "example.com/app", true},
		{"example.com/*", "example.com/app/sub", false},
		{"get*|set*", "setName", true},
		{"get*|set*", "name", false},
		{"*Na*e", "getName", true},
		{"a**b**c", "a.x/b\\y.c", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Glob(tt.pattern, tt.name))
		})
	}
}
