package reflectmodel_test

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/weft/pkg/matcher"
	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/model/reflectmodel"
	"github.com/chazu/weft/pkg/parser"
)

const pkgPath = "github.com/chazu/weft/pkg/model/reflectmodel_test"

type Base struct{}

type Greeter interface {
	Greet(name string) string
}

type Service struct {
	*Base
	Name   string `weft:"Audited, Logged"`
	Counts map[string][]int
	secret int
}

func (s *Service) Greet(name string) string { return "hello " + name }

func (s *Service) Write(ctx context.Context, buf *bytes.Buffer, parts ...string) (int, error) {
	return 0, nil
}

func (s *Service) WeftAnnotations() []string { return []string{"Component"} }

func (s *Service) hidden() {}

func types(t *testing.T, values ...any) map[string]*model.Type {
	t.Helper()
	src, err := reflectmodel.New(values...)
	require.NoError(t, err)
	list, err := src.Types()
	require.NoError(t, err)

	out := make(map[string]*model.Type)
	for _, typ := range list {
		out[typ.Name] = typ
	}
	return out
}

func TestNewDescribesStruct(t *testing.T) {
	got := types(t, &Service{}, reflect.TypeOf((*Greeter)(nil)).Elem())

	svc := got["Service"]
	require.NotNil(t, svc)
	assert.Equal(t, pkgPath, svc.Package)
	assert.Equal(t, []string{pkgPath + ".Base"}, svc.Parents)
	assert.Equal(t, []string{pkgPath + ".Greeter"}, svc.Interfaces)
	assert.Equal(t, []string{"Component"}, svc.Annotations)

	want := []model.Member{
		{Name: "Name", Kind: model.Property, Type: "string", Annotations: []string{"Audited", "Logged"}},
		{Name: "Counts", Kind: model.Property, Type: "map[string][]int"},
		{
			Name:    "Greet",
			Kind:    model.Method,
			Params:  []model.Parameter{{Type: "string"}},
			Results: []model.Parameter{{Type: "string"}},
		},
		{
			Name: "Write",
			Kind: model.Method,
			Params: []model.Parameter{
				{Type: "context.Context"},
				{Type: "*bytes.Buffer", ByRef: true},
				{Type: "string", Variadic: true},
			},
			Results: []model.Parameter{{Type: "int"}, {Type: "error"}},
		},
	}
	if diff := cmp.Diff(want, svc.Members); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}

	greeter := got["Greeter"]
	require.NotNil(t, greeter)
	assert.True(t, greeter.IsInterface)
	require.Len(t, greeter.Members, 1)
	assert.Equal(t, []model.Parameter{{Type: "string"}}, greeter.Members[0].Params)
}

func TestNewRejectsUnnamed(t *testing.T) {
	_, err := reflectmodel.New([]int{1})
	assert.Error(t, err)

	_, err = reflectmodel.New(nil)
	assert.Error(t, err)
}

func TestKinds(t *testing.T) {
	src, err := reflectmodel.New(Service{})
	require.NoError(t, err)
	assert.True(t, model.Supports(src, model.Method))
	assert.True(t, model.Supports(src, model.Property))
	assert.False(t, model.Supports(src, model.StaticMethod))
}

func TestMatchesReflectedMembers(t *testing.T) {
	svc := types(t, &Service{})["Service"]
	expr := parser.MustParse("execution(Service->Write(context.Context, *bytes.Buffer, string)) || access(Service->Name)")

	var matched []string
	for _, el := range svc.Elements() {
		if matcher.Matches(expr, el) {
			matched = append(matched, el.Member.Name)
		}
	}
	assert.Equal(t, []string{"Name", "Write"}, matched)
}
