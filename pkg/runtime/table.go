package runtime

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// installed is a manifest together with the resolver for its advice.
type installed struct {
	manifest *Manifest
	resolver Resolver
}

// Table is the process-scoped store of installed manifests. Chains are
// resolved lazily on first use and cached until the owner is reinstalled
// or the table is reset.
type Table struct {
	logger *zap.Logger

	mu     sync.RWMutex
	owners map[string]installed

	chains sync.Map // Key -> []Advice
	group  singleflight.Group
	gen    atomic.Uint64
}

// NewTable creates an empty table.
func NewTable(opts ...Option) *Table {
	o := buildOptions(opts)
	return &Table{
		logger: o.logger,
		owners: make(map[string]installed),
	}
}

// Install registers a manifest. Installing an owner again replaces its
// manifest and drops any chains already resolved for it.
func (t *Table) Install(m *Manifest, r Resolver) error {
	if m == nil || m.Owner == "" {
		return errors.New("install: manifest has no owner")
	}
	if r == nil {
		return fmt.Errorf("install %s: nil resolver", m.Owner)
	}
	if _, err := m.Keys(); err != nil {
		return fmt.Errorf("install %s: %w", m.Owner, err)
	}

	t.mu.Lock()
	t.owners[m.Owner] = installed{manifest: m, resolver: r}
	t.chains.Range(func(k, _ any) bool {
		if k.(Key).Owner == m.Owner {
			t.chains.Delete(k)
		}
		return true
	})
	t.gen.Add(1)
	t.mu.Unlock()

	t.logger.Debug("installed manifest",
		zap.String("owner", m.Owner),
		zap.Int("joinpoints", len(m.JoinPoints)))
	return nil
}

// InstallJSON decodes and installs an encoded manifest.
func (t *Table) InstallJSON(data []byte, r Resolver) error {
	m, err := DecodeManifest(data)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}
	return t.Install(m, r)
}

// Manifest returns the installed manifest for owner.
func (t *Table) Manifest(owner string) (*Manifest, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	inst, ok := t.owners[owner]
	return inst.manifest, ok
}

// Owners returns the installed owners in sorted order.
func (t *Table) Owners() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	owners := make([]string, 0, len(t.owners))
	for o := range t.owners {
		owners = append(owners, o)
	}
	sort.Strings(owners)
	return owners
}

// Reset removes every manifest and cached chain. Sites bound to the table
// re-resolve on their next call.
func (t *Table) Reset() {
	t.mu.Lock()
	t.owners = make(map[string]installed)
	t.chains.Clear()
	t.gen.Add(1)
	t.mu.Unlock()
}

// generation changes whenever the installed manifests change.
func (t *Table) generation() uint64 { return t.gen.Load() }

// Chain returns the resolved advice chain for key. Concurrent first calls
// for the same key share one resolution.
func (t *Table) Chain(key Key) ([]Advice, error) {
	if v, ok := t.chains.Load(key); ok {
		return v.([]Advice), nil
	}

	v, err, _ := t.group.Do(key.String(), func() (any, error) {
		if v, ok := t.chains.Load(key); ok {
			return v, nil
		}
		gen := t.generation()
		chain, err := t.resolve(key)
		if err != nil {
			return nil, err
		}
		t.mu.RLock()
		if t.generation() == gen {
			t.chains.Store(key, chain)
		}
		t.mu.RUnlock()
		return chain, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Advice), nil
}

func (t *Table) resolve(key Key) ([]Advice, error) {
	t.mu.RLock()
	inst, ok := t.owners[key.Owner]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (owner not installed)", ErrUnknownJoinPoint, key)
	}
	refs, ok := inst.manifest.JoinPoints[key.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJoinPoint, key)
	}

	chain := make([]Advice, 0, len(refs))
	for _, ref := range refs {
		fn, err := inst.resolver.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("resolving %s for %s: %w", ref, key, err)
		}
		if fn == nil {
			return nil, fmt.Errorf("resolving %s for %s: nil advice", ref, key)
		}
		chain = append(chain, Advice{Ref: ref, Func: fn})
	}

	chainResolutionsTotal.Inc()
	t.logger.Debug("resolved advice chain",
		zap.Stringer("joinpoint", key),
		zap.Int("advices", len(chain)))
	return chain, nil
}

// JoinPoint resolves key's chain and wraps it around terminal.
func (t *Table) JoinPoint(key Key, terminal Terminal) (*JoinPoint, error) {
	chain, err := t.Chain(key)
	if err != nil {
		return nil, err
	}
	return NewJoinPoint(key, terminal, chain, WithLogger(t.logger)), nil
}
