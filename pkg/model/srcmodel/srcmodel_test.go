package srcmodel_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/model/srcmodel"
)

const storeSrc = `package store

import "context"

// Getter reads values.
type Getter interface {
	Get(ctx context.Context, key string) (string, error)
}

// Store is a key-value store.
//
// @Cached
type Store struct {
	Base

	// @Audited
	Name  string
	items map[string]string
}

type Base struct{}

// NewStore creates an empty store.
func NewStore(name string) *Store {
	return &Store{Name: name, items: map[string]string{}}
}

// Get returns the value for key.
//
// @Loggable
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.items[key], nil
}

func (s *Store) put(key string, vals ...string) {
	s.items[key] = vals[0]
}

func helper() int { return 1 }
`

func load(t *testing.T) map[string]*model.Type {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "store"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "store", "store.go"), []byte(storeSrc), 0o644))

	src, err := srcmodel.Load(dir)
	require.NoError(t, err)
	list, err := src.Types()
	require.NoError(t, err)

	out := make(map[string]*model.Type)
	for _, typ := range list {
		out[typ.Name] = typ
	}
	return out
}

func TestLoad(t *testing.T) {
	got := load(t)
	require.Len(t, got, 3)

	store := got["Store"]
	require.NotNil(t, store)
	assert.Equal(t, "example.com/app/store.Store", store.QualifiedName())
	assert.Equal(t, []string{"Cached"}, store.Annotations)
	assert.Equal(t, []string{"example.com/app/store.Base"}, store.Parents)
	assert.Equal(t, []string{"example.com/app/store.Getter"}, store.Interfaces)
	assert.Equal(t, model.Location{File: "store/store.go", Line: 13}, store.Location)

	name, ok := store.Member("Name", model.Property)
	require.True(t, ok)
	assert.Equal(t, "string", name.Type)
	assert.Equal(t, []string{"Audited"}, name.Annotations)

	items, ok := store.Member("items", model.Property)
	require.True(t, ok)
	assert.Equal(t, model.Private, items.Visibility)
	assert.Equal(t, "map[string]string", items.Type)

	get, ok := store.Member("Get", model.Method)
	require.True(t, ok)
	assert.Equal(t, []model.Parameter{{Name: "ctx", Type: "context.Context"}, {Name: "key", Type: "string"}}, get.Params)
	assert.True(t, get.ReturnsError())
	assert.Equal(t, []string{"Loggable"}, get.Annotations)

	put, ok := store.Member("put", model.Method)
	require.True(t, ok)
	assert.Equal(t, model.Parameter{Name: "vals", Type: "string", Variadic: true}, put.Params[1])

	ctor, ok := store.Member("NewStore", model.StaticMethod)
	require.True(t, ok)
	assert.Equal(t, []model.Parameter{{Type: "*example.com/app/store.Store"}}, ctor.Results)

	for _, typ := range got {
		_, ok := typ.Member("helper", model.StaticMethod)
		assert.False(t, ok, "helper constructs nothing")
	}

	getter := got["Getter"]
	require.NotNil(t, getter)
	assert.True(t, getter.IsInterface)
	require.Len(t, getter.Members, 1)
	assert.Equal(t, "Get", getter.Members[0].Name)
}

func TestKinds(t *testing.T) {
	src := srcmodel.FromPackages(".", nil)
	assert.False(t, model.Supports(src, model.StaticInit))
	assert.True(t, model.Supports(src, model.StaticMethod))

	types, err := src.Types()
	require.NoError(t, err)
	assert.Empty(t, types)
}
