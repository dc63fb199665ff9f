package runtime

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Site is the static call-site handle of one join point in generated code.
// It resolves its JoinPoint from the bound Table on first use and reuses it
// until the table changes.
type Site struct {
	key      Key
	terminal Terminal

	table    atomic.Pointer[Table]
	resolved atomic.Pointer[siteState]
}

type siteState struct {
	table *Table
	gen   uint64
	jp    *JoinPoint
}

// NewSite creates an unbound site.
func NewSite(key Key, terminal Terminal) *Site {
	return &Site{key: key, terminal: terminal}
}

// Key returns the join point the site dispatches to.
func (s *Site) Key() Key { return s.key }

// Bind attaches the site to a table.
func (s *Site) Bind(t *Table) {
	s.table.Store(t)
	s.resolved.Store(nil)
}

// JoinPoint returns the resolved join point, resolving it if needed. When
// several goroutines resolve at once, all of them end up with the same
// JoinPoint.
func (s *Site) JoinPoint() (*JoinPoint, error) {
	t := s.table.Load()
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, s.key)
	}
	gen := t.generation()
	if st := s.resolved.Load(); st != nil && st.table == t && st.gen == gen {
		return st.jp, nil
	}

	jp, err := t.JoinPoint(s.key, s.terminal)
	if err != nil {
		return nil, err
	}
	next := &siteState{table: t, gen: gen, jp: jp}
	for {
		cur := s.resolved.Load()
		if cur != nil && cur.table == t && cur.gen == gen {
			return cur.jp, nil
		}
		if s.resolved.CompareAndSwap(cur, next) {
			return jp, nil
		}
	}
}

// Invoke resolves the join point and runs it.
func (s *Site) Invoke(ctx context.Context, receiver any, args []any) (any, error) {
	jp, err := s.JoinPoint()
	if err != nil {
		return nil, err
	}
	return jp.Invoke(ctx, receiver, args)
}
