package aspect

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chazu/weft/pkg/runtime"
)

// Library maps advice names to their bodies for declarations loaded from
// files. Keys are either "<aspect id>-><advice name>" or a bare advice name;
// the qualified form wins.
type Library map[string]runtime.AdviceFunc

// lookup finds the body for one declaration.
func (l Library) lookup(aspectID, name string) runtime.AdviceFunc {
	if fn, ok := l[aspectID+"->"+name]; ok {
		return fn
	}
	return l[name]
}

// File is the on-disk form of a set of aspect declarations.
type File struct {
	Aspects []Aspect `yaml:"aspects"`
}

// Decode reads aspect declarations from YAML and binds advice bodies from
// lib. Declarations without a library entry keep a nil Func; they can be
// woven but not executed.
func Decode(r io.Reader, lib Library) ([]Aspect, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse aspects: %w", err)
	}

	for i := range f.Aspects {
		a := &f.Aspects[i]
		for j := range a.Advice {
			a.Advice[j].Func = lib.lookup(a.ID, adviceName(a.Advice[j], j))
		}
	}
	return f.Aspects, nil
}

// LoadFile reads aspect declarations from a YAML file.
func LoadFile(path string, lib Library) ([]Aspect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aspects: %w", err)
	}
	defer f.Close()
	return Decode(f, lib)
}

// RegisterAll registers aspects in order and stops at the first error.
func (r *Registry) RegisterAll(aspects []Aspect) ([]Binding, error) {
	var out []Binding
	for _, a := range aspects {
		b, err := r.Register(a)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}
