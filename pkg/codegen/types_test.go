package codegen

import (
	"fmt"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"

	"github.com/chazu/weft/pkg/model"
)

func TestTypeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"", "any"},
		{"*bytes.Buffer", "*bytes.Buffer"},
		{"[]example.com/app/store.Item", "[]store.Item"},
		{"map[string][]int", "map[string][]int"},
		{"map[example.com/app/store.Key]*example.com/app/store.Item", "map[store.Key]*store.Item"},
		{"[4]byte", "[4]byte"},
		{"chan error", "chan error"},
		{"<-chan struct{}", "<-chan struct{}"},
		{"func(int) error", "func(int) error"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f := jen.NewFile("x")
			f.Var().Id("v").Add(typeCode(tt.in))
			assert.Contains(t, fmt.Sprintf("%#v", f), "var v "+tt.want)
		})
	}
}

func TestParamNames(t *testing.T) {
	infos := []paramInfo{
		{Parameter: model.Parameter{Name: "", Type: "context.Context"}, ctx: true},
		{Parameter: model.Parameter{Name: "err", Type: "error"}},
		{Parameter: model.Parameter{Name: "x", Type: "int"}},
		{Parameter: model.Parameter{Name: "x", Type: "int"}},
		{Parameter: model.Parameter{Name: "_", Type: "int"}},
		{Parameter: model.Parameter{Name: "r1", Type: "int"}},
		{Parameter: model.Parameter{Name: "ctx", Type: "string"}},
	}
	assert.Equal(t, []string{"ctx", "a1", "x", "a3", "a4", "a5", "a6"}, paramNames(infos))
}

func TestParamNamesAvoidPositionalClash(t *testing.T) {
	infos := []paramInfo{
		{Parameter: model.Parameter{Name: "a1", Type: "int"}},
		{Parameter: model.Parameter{Name: "_", Type: "string"}},
		{Parameter: model.Parameter{Name: "a2", Type: "int"}},
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, paramNames(infos))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Name", capitalize("name"))
	assert.Equal(t, "name", uncapitalize("Name"))
	assert.Equal(t, "", capitalize(""))
	assert.True(t, isExported("Name"))
	assert.False(t, isExported("name"))
}
