// Package runtime executes woven join points.
//
// A JoinPoint pairs an ordered advice chain with the original behavior
// (the terminal). Invoking it runs the chain through an Invocation, which
// carries the call's arguments, receiver and cursor. Generated proxies reach
// their join points through a Site, which resolves the chain from a Table of
// installed manifests on first use.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/weft/pkg/model"
)

// ErrNotInstalled is returned by a Site that has not been bound to a Table.
var ErrNotInstalled = errors.New("join point not installed")

// ErrUnknownJoinPoint indicates a key that no installed manifest describes.
var ErrUnknownJoinPoint = errors.New("unknown join point")

// AdviceKind classifies advice by when it runs relative to the chain below it.
type AdviceKind int

const (
	Before AdviceKind = iota
	After
	Around
	AfterThrowing
)

var adviceKindNames = [...]string{"Before", "After", "Around", "AfterThrowing"}

func (k AdviceKind) String() string {
	if k < 0 || int(k) >= len(adviceKindNames) {
		return fmt.Sprintf("AdviceKind(%d)", int(k))
	}
	return adviceKindNames[k]
}

// ParseAdviceKind accepts the kind names case-insensitively.
func ParseAdviceKind(s string) (AdviceKind, bool) {
	for i, name := range adviceKindNames {
		if strings.EqualFold(s, name) {
			return AdviceKind(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k AdviceKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *AdviceKind) UnmarshalText(b []byte) error {
	v, ok := ParseAdviceKind(string(b))
	if !ok {
		return fmt.Errorf("unknown advice kind %q", string(b))
	}
	*k = v
	return nil
}

// Key identifies one interceptable unit.
type Key struct {
	Owner  string     `json:"owner"`  // Qualified type name
	Member string     `json:"member"` // Member name
	Kind   model.Kind `json:"kind"`
}

// KeyOf returns the key for a structural element.
func KeyOf(el model.Element) Key {
	return Key{Owner: el.Owner.QualifiedName(), Member: el.Member.Name, Kind: el.Kind()}
}

// String renders the key as "kind:Owner->member".
func (k Key) String() string {
	return k.Kind.String() + ":" + k.Owner + "->" + k.Member
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return Key{}, fmt.Errorf("malformed join point key %q", s)
	}
	i := strings.LastIndex(rest, "->")
	if i < 0 {
		return Key{}, fmt.Errorf("malformed join point key %q", s)
	}
	k, err := model.ParseKind(kind)
	if err != nil {
		return Key{}, fmt.Errorf("malformed join point key %q: %w", s, err)
	}
	return Key{Owner: rest[:i], Member: rest[i+2:], Kind: k}, nil
}

// MustParseKey is like ParseKey but panics on error. Generated code uses it
// for keys known to be well formed.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Results spreads a chain result into n values. Multi-value originals
// return a []any; a nil or short result is padded with nils.
func Results(v any, n int) []any {
	out := make([]any, n)
	if vals, ok := v.([]any); ok {
		copy(out, vals)
	}
	return out
}

// AdviceRef names one piece of advice without holding the callable, so it
// can be serialized into manifests.
type AdviceRef struct {
	Aspect string     `json:"aspect"`
	Name   string     `json:"name"`
	Kind   AdviceKind `json:"kind"`
	Order  int        `json:"order"`
}

func (r AdviceRef) String() string {
	return r.Aspect + "->" + r.Name
}

// AdviceFunc is the body of a piece of advice. Around advice decides whether
// and when to call inv.Proceed; the other kinds are wrapped by the chain.
type AdviceFunc func(inv *Invocation) (any, error)

// Terminal is the original behavior a chain wraps.
type Terminal func(ctx context.Context, receiver any, args []any) (any, error)

// Resolver turns a serialized advice reference back into its callable.
type Resolver interface {
	Resolve(ref AdviceRef) (AdviceFunc, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ref AdviceRef) (AdviceFunc, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ref AdviceRef) (AdviceFunc, error) { return f(ref) }

// Advice is a resolved link in a chain.
type Advice struct {
	Ref  AdviceRef
	Func AdviceFunc
}
