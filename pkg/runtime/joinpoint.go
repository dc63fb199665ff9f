package runtime

import (
	"context"

	"go.uber.org/zap"
)

// JoinPoint is a resolved advice chain wrapped around an original behavior.
// It holds no per-call state and is safe for concurrent use.
type JoinPoint struct {
	key      Key
	chain    []Advice
	terminal Terminal
	logger   *zap.Logger
}

// invocationKey scopes a context value to one join point.
type invocationKey struct{ jp *JoinPoint }

// NewJoinPoint builds a join point. The chain runs in the given order: the
// first advice is outermost.
func NewJoinPoint(key Key, terminal Terminal, chain []Advice, opts ...Option) *JoinPoint {
	o := buildOptions(opts)
	return &JoinPoint{
		key:      key,
		chain:    append([]Advice(nil), chain...),
		terminal: terminal,
		logger:   o.logger.With(zap.Stringer("joinpoint", key)),
	}
}

// Key returns the join point's identity.
func (jp *JoinPoint) Key() Key { return jp.key }

// Chain returns the references of the advice chain in execution order.
func (jp *JoinPoint) Chain() []AdviceRef {
	refs := make([]AdviceRef, len(jp.chain))
	for i, a := range jp.chain {
		refs[i] = a.Ref
	}
	return refs
}

// Invoke runs the chain for one call. If ctx comes from an invocation of
// this join point that is still executing, the call is nested: it runs in a
// new Invocation that records the enclosing calls as frames. The enclosing
// invocation is never modified, so ctx may be shared by goroutines.
func (jp *JoinPoint) Invoke(ctx context.Context, receiver any, args []any) (any, error) {
	invocationsTotal.WithLabelValues(jp.key.String()).Inc()

	if s, ok := ctx.Value(invocationKey{jp}).(*scope); ok && !s.inv.done.Load() {
		inv := s.inv.nest(s.frame)
		jp.logger.Debug("nested invocation", zap.Int("depth", inv.depth))
		return inv.run(ctx, receiver, args)
	}

	inv := &Invocation{jp: jp, depth: 1}
	return inv.run(ctx, receiver, args)
}

func (jp *JoinPoint) adviceFailed(ref AdviceRef, err error) {
	adviceErrorsTotal.WithLabelValues(ref.Kind.String()).Inc()
	jp.logger.Debug("advice returned error",
		zap.Stringer("advice", ref),
		zap.Stringer("kind", ref.Kind),
		zap.Error(err))
}
