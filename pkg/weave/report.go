package weave

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/chazu/weft/pkg/aspect"
	"github.com/chazu/weft/pkg/runtime"
)

// Chain is the ordered advice for one join point.
type Chain struct {
	Key    runtime.Key         `json:"key"`
	Advice []runtime.AdviceRef `json:"advice"`

	// Bindings are the compiled bindings behind Advice. Not serialized.
	Bindings []aspect.Binding `json:"-"`
}

// Report is the output of a weave: the chain of every woven join point and
// the keys of the elements left alone. It is read-only once returned.
type Report struct {
	ID      uuid.UUID     `json:"id"`
	Chains  []*Chain      `json:"joinPoints"` // Sorted by key
	Unwoven []runtime.Key `json:"unwoven"`    // Sorted by key

	index map[runtime.Key]*Chain
}

func newReport(chains []*Chain, unwoven []runtime.Key) *Report {
	sort.Slice(chains, func(i, j int) bool { return chains[i].Key.String() < chains[j].Key.String() })
	sort.Slice(unwoven, func(i, j int) bool { return unwoven[i].String() < unwoven[j].String() })
	r := &Report{ID: uuid.New(), Chains: chains, Unwoven: unwoven}
	r.reindex()
	return r
}

func (r *Report) reindex() {
	r.index = make(map[runtime.Key]*Chain, len(r.Chains))
	for _, c := range r.Chains {
		r.index[c.Key] = c
	}
}

// Chain returns the chain for key.
func (r *Report) Chain(key runtime.Key) (*Chain, bool) {
	c, ok := r.index[key]
	return c, ok
}

// ChainsFor returns the chains of one owner type, sorted by key.
func (r *Report) ChainsFor(owner string) []*Chain {
	var out []*Chain
	for _, c := range r.Chains {
		if c.Key.Owner == owner {
			out = append(out, c)
		}
	}
	return out
}

// Owners returns every owner type with at least one woven join point.
func (r *Report) Owners() []string {
	seen := make(map[string]bool)
	var owners []string
	for _, c := range r.Chains {
		if !seen[c.Key.Owner] {
			seen[c.Key.Owner] = true
			owners = append(owners, c.Key.Owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// Unmatched returns the bindings that contribute to no chain, in the order
// given.
func (r *Report) Unmatched(bindings []aspect.Binding) []aspect.Binding {
	used := make(map[runtime.AdviceRef]bool)
	for _, c := range r.Chains {
		for _, ref := range c.Advice {
			used[ref] = true
		}
	}
	var out []aspect.Binding
	for _, b := range bindings {
		if !used[b.Ref()] {
			out = append(out, b)
		}
	}
	return out
}

// Manifest restricts the report to one owner in the form generated proxies
// embed.
func (r *Report) Manifest(owner string) *runtime.Manifest {
	m := runtime.NewManifest(owner)
	for _, c := range r.ChainsFor(owner) {
		m.Add(c.Key, c.Advice...)
	}
	return m
}

// Digest is a hash of the report's content. Two weaves of the same inputs
// have the same digest even though their IDs differ.
func (r *Report) Digest() string {
	content := struct {
		Chains  []*Chain      `json:"joinPoints"`
		Unwoven []runtime.Key `json:"unwoven"`
	}{r.Chains, r.Unwoven}

	data, err := json.Marshal(content)
	if err != nil {
		// Every field is a plain value; encoding cannot fail.
		panic(fmt.Sprintf("weave: encoding report digest: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode returns the report as JSON.
func (r *Report) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeReport parses a report written by Encode. Chain bindings are not
// restored.
func DecodeReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	r.reindex()
	return &r, nil
}
