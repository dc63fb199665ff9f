package aspect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/chazu/weft/pkg/ast"
	"github.com/chazu/weft/pkg/parser"
	"github.com/chazu/weft/pkg/runtime"
)

// entry is one registered aspect.
type entry struct {
	aspect    Aspect
	seq       int
	pointcuts map[string]ast.Node // Named pointcuts, references inlined
	bindings  []Binding
}

// Registry stores registered aspects. It is created by the caller, frozen
// once weaving completes and reset explicitly between runs.
type Registry struct {
	logger *zap.Logger

	mu      sync.RWMutex
	aspects map[string]*entry
	nextSeq int
	frozen  bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger:  zap.NewNop(),
		aspects: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register compiles an aspect and stores its bindings. Registering an id
// again replaces its bindings but keeps its original registration sequence.
// A failed registration leaves the registry unchanged.
func (r *Registry) Register(a Aspect) ([]Binding, error) {
	if a.ID == "" {
		return nil, ErrEmptyAspectID
	}
	if !validID(a.ID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAspectID, a.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, fmt.Errorf("register %s: %w", a.ID, ErrFrozen)
	}

	kinds, err := validateAdvice(a)
	if err != nil {
		return nil, err
	}
	named, err := r.compileNamed(a)
	if err != nil {
		return nil, err
	}

	seq := r.nextSeq
	prev, replacing := r.aspects[a.ID]
	if replacing {
		seq = prev.seq
	}

	bindings := make([]Binding, 0, len(a.Advice))
	for i, d := range a.Advice {
		expr, err := r.compile(a, named, d.Pointcut)
		if err != nil {
			return nil, &PointcutCompilationError{
				Aspect: a.ID,
				Advice: adviceName(d, i),
				Source: d.Pointcut,
				Cause:  err,
			}
		}
		bindings = append(bindings, Binding{
			Aspect:   a.ID,
			Name:     adviceName(d, i),
			Kind:     kinds[i],
			Order:    d.Order,
			Pointcut: expr,
			Source:   d.Pointcut,
			Seq:      seq,
			Index:    i,
			Func:     d.Func,
		})
	}

	r.aspects[a.ID] = &entry{aspect: a, seq: seq, pointcuts: named, bindings: bindings}
	if !replacing {
		r.nextSeq++
	}

	r.logger.Debug("registered aspect",
		zap.String("aspect", a.ID),
		zap.Int("seq", seq),
		zap.Int("bindings", len(bindings)),
		zap.Bool("replaced", replacing))

	return append([]Binding(nil), bindings...), nil
}

// validateAdvice checks kinds and names before anything is compiled.
func validateAdvice(a Aspect) ([]runtime.AdviceKind, error) {
	kinds := make([]runtime.AdviceKind, len(a.Advice))
	seen := make(map[string]bool, len(a.Advice))
	for i, d := range a.Advice {
		kind, ok := runtime.ParseAdviceKind(d.Kind)
		if !ok {
			return nil, &InvalidAdviceError{Aspect: a.ID, Advice: adviceName(d, i), Kind: d.Kind}
		}
		name := adviceName(d, i)
		if seen[name] {
			return nil, &InvalidAdviceError{Aspect: a.ID, Advice: name, Kind: d.Kind, Reason: "duplicate advice name"}
		}
		if strings.Contains(name, "->") {
			return nil, &InvalidAdviceError{Aspect: a.ID, Advice: name, Kind: d.Kind, Reason: "advice names may not contain '->'"}
		}
		seen[name] = true
		kinds[i] = kind
	}
	return kinds, nil
}

// compileNamed parses the aspect's named pointcuts and inlines references
// between them. Cycles are rejected.
func (r *Registry) compileNamed(a Aspect) (map[string]ast.Node, error) {
	names := make([]string, 0, len(a.Pointcuts))
	for name := range a.Pointcuts {
		names = append(names, name)
	}
	sort.Strings(names)

	raw := make(map[string]ast.Node, len(names))
	for _, name := range names {
		expr, err := parser.Parse(parser.Substitute(a.Pointcuts[name], a.ID))
		if err != nil {
			return nil, &PointcutCompilationError{Aspect: a.ID, Advice: "pointcut " + name, Source: a.Pointcuts[name], Cause: err}
		}
		raw[name] = expr
	}

	resolved := make(map[string]ast.Node, len(names))
	visiting := make(map[string]bool)

	var resolve func(name string) (ast.Node, error)
	resolve = func(name string) (ast.Node, error) {
		if n, ok := resolved[name]; ok {
			return n, nil
		}
		expr, ok := raw[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s->%s", ErrUnresolvedReference, a.ID, name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("%w: %s->%s", ErrCyclicReference, a.ID, name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		n, err := ast.Replace(expr, func(ref *ast.Ref) (ast.Node, error) {
			if ref.Aspect == a.ID {
				return resolve(ref.Name)
			}
			return r.lookupForeign(ref)
		})
		if err != nil {
			return nil, err
		}
		resolved[name] = n
		return n, nil
	}

	for _, name := range names {
		if _, err := resolve(name); err != nil {
			return nil, &PointcutCompilationError{Aspect: a.ID, Advice: "pointcut " + name, Source: a.Pointcuts[name], Cause: err}
		}
	}
	return resolved, nil
}

// compile parses one advice pointcut and inlines its references.
func (r *Registry) compile(a Aspect, named map[string]ast.Node, src string) (ast.Node, error) {
	expr, err := parser.Parse(parser.Substitute(src, a.ID))
	if err != nil {
		return nil, err
	}
	return ast.Replace(expr, func(ref *ast.Ref) (ast.Node, error) {
		if ref.Aspect == a.ID {
			if n, ok := named[ref.Name]; ok {
				return n, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, ref)
		}
		return r.lookupForeign(ref)
	})
}

// lookupForeign resolves a reference to another registered aspect's
// pointcut. Callers hold r.mu.
func (r *Registry) lookupForeign(ref *ast.Ref) (ast.Node, error) {
	other, ok := r.aspects[ref.Aspect]
	if !ok {
		return nil, fmt.Errorf("%w: %s (aspect not registered)", ErrUnresolvedReference, ref)
	}
	n, ok := other.pointcuts[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvedReference, ref)
	}
	return n, nil
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze has been called since the last Reset.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Reset removes every aspect and unfreezes the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.aspects = make(map[string]*entry)
	r.nextSeq = 0
	r.frozen = false
	r.mu.Unlock()
}

// Bindings returns every binding ordered by aspect registration sequence,
// then declaration index.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Binding
	for _, e := range r.sortedEntries() {
		out = append(out, e.bindings...)
	}
	return out
}

// Aspects returns the registered aspect ids in registration order.
func (r *Registry) Aspects() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.sortedEntries()
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.aspect.ID
	}
	return ids
}

// Aspect returns the declaration registered under id.
func (r *Registry) Aspect(id string) (Aspect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.aspects[id]
	if !ok {
		return Aspect{}, false
	}
	return e.aspect, true
}

// Pointcut returns a compiled named pointcut.
func (r *Registry) Pointcut(aspectID, name string) (ast.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.aspects[aspectID]
	if !ok {
		return nil, false
	}
	n, ok := e.pointcuts[name]
	return n, ok
}

func (r *Registry) sortedEntries() []*entry {
	entries := make([]*entry, 0, len(r.aspects))
	for _, e := range r.aspects {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	return entries
}

// Resolve implements runtime.Resolver.
func (r *Registry) Resolve(ref runtime.AdviceRef) (runtime.AdviceFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.aspects[ref.Aspect]
	if !ok {
		return nil, fmt.Errorf("%w: %s (aspect not registered)", ErrUnknownAdvice, ref)
	}
	for _, b := range e.bindings {
		if b.Name != ref.Name {
			continue
		}
		if b.Kind != ref.Kind {
			return nil, fmt.Errorf("%w: %s is %s, manifest expects %s", ErrUnknownAdvice, ref, b.Kind, ref.Kind)
		}
		if b.Func == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoAdviceBody, ref)
		}
		return b.Func, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAdvice, ref)
}

// validID reports whether id lexes as a single reference name.
func validID(id string) bool {
	for i := 0; i < len(id); i++ {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '.', c == '/', c == '\\':
		default:
			return false
		}
	}
	return true
}
