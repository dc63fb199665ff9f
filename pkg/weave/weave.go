// Package weave matches registered advice against a structural model and
// produces the advice chain of every affected join point.
package weave

import (
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/chazu/weft/pkg/aspect"
	"github.com/chazu/weft/pkg/ast"
	"github.com/chazu/weft/pkg/matcher"
	"github.com/chazu/weft/pkg/model"
	"github.com/chazu/weft/pkg/runtime"
)

// weaveElementsTotal counts elements seen by the weaving pass.
// Labels: result (woven, unwoven)
var weaveElementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "weft",
	Name:      "weave_elements_total",
	Help:      "Total structural elements processed by the weaving pass",
}, []string{"result"})

type options struct {
	logger *zap.Logger
}

// Option configures Weave.
type Option func(*options)

// WithLogger sets the logger used during the pass.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Weave tests every registered binding against every element of src. Any
// problem aborts the whole weave; nothing is partially applied. On success
// the registry is frozen.
func Weave(src model.Source, reg *aspect.Registry, opts ...Option) (*Report, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	types, err := src.Types()
	if err != nil {
		return nil, fmt.Errorf("weave: reading model: %w", err)
	}
	elements := collect(types)
	bindings := reg.Bindings()

	if err := check(src, bindings); err != nil {
		return nil, err
	}

	var (
		chains  []*Chain
		unwoven []runtime.Key
		seen    = make(map[runtime.Key]bool, len(elements))
	)
	for _, el := range elements {
		key := runtime.KeyOf(el)
		if seen[key] {
			o.logger.Warn("duplicate join point key, keeping the first", zap.Stringer("key", key))
			continue
		}
		seen[key] = true

		var matched []aspect.Binding
		for _, b := range bindings {
			if matcher.Matches(b.Pointcut, el) {
				matched = append(matched, b)
			}
		}
		if len(matched) == 0 {
			unwoven = append(unwoven, key)
			weaveElementsTotal.WithLabelValues("unwoven").Inc()
			continue
		}

		sort.SliceStable(matched, func(i, j int) bool { return aspect.Less(matched[i], matched[j]) })
		refs := make([]runtime.AdviceRef, len(matched))
		for i, b := range matched {
			refs[i] = b.Ref()
		}
		chains = append(chains, &Chain{Key: key, Advice: refs, Bindings: matched})
		weaveElementsTotal.WithLabelValues("woven").Inc()

		o.logger.Debug("woven join point",
			zap.Stringer("key", key),
			zap.Int("advices", len(refs)))
	}

	reg.Freeze()
	report := newReport(chains, unwoven)
	for _, b := range report.Unmatched(bindings) {
		o.logger.Warn("advice matched no join point",
			zap.String("advice", b.String()),
			zap.String("pointcut", b.Source))
	}

	o.logger.Info("weave complete",
		zap.Stringer("id", report.ID),
		zap.Int("woven", len(report.Chains)),
		zap.Int("unwoven", len(report.Unwoven)))
	return report, nil
}

// collect flattens the model into elements, ordered by type name and then
// declaration order.
func collect(types []*model.Type) []model.Element {
	sorted := append([]*model.Type(nil), types...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].QualifiedName() < sorted[j].QualifiedName() })

	var out []model.Element
	for _, t := range sorted {
		out = append(out, t.Elements()...)
	}
	return out
}

// check rejects bindings the source cannot evaluate: leftover references
// and pointcuts over member kinds the model does not describe.
func check(src model.Source, bindings []aspect.Binding) error {
	for _, b := range bindings {
		if refs := ast.Refs(b.Pointcut); len(refs) > 0 {
			return &Error{
				Aspect:   b.Aspect,
				Pointcut: b.Source,
				Element:  refs[0].String(),
				Cause:    fmt.Errorf("%w: %s", aspect.ErrUnresolvedReference, refs[0]),
			}
		}
		for _, k := range RequiredKinds(b.Pointcut) {
			if !model.Supports(src, k) {
				return &Error{
					Aspect:   b.Aspect,
					Pointcut: b.Source,
					Element:  k.String(),
					Cause:    fmt.Errorf("%w: %s", ErrUnsupportedKind, k),
				}
			}
		}
	}
	return nil
}

// RequiredKinds lists the member kinds an expression's predicates select,
// in first-use order.
func RequiredKinds(expr ast.Node) []model.Kind {
	var kinds []model.Kind
	seen := make(map[model.Kind]bool)
	add := func(k model.Kind) {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}

	ast.Inspect(expr, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Execution:
			if x.Static {
				add(model.StaticMethod)
			} else {
				add(model.Method)
			}
		case *ast.Access:
			add(model.Property)
		case *ast.StaticInit:
			add(model.StaticInit)
		}
		return true
	})
	return kinds
}
