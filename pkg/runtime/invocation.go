package runtime

import (
	"context"
	"sync/atomic"
)

// Frame is a saved snapshot of an invocation's call state.
type Frame struct {
	Arguments []any
	Receiver  any
	Cursor    int
}

// FrameStack holds the frames of the calls enclosing a nested invocation.
type FrameStack struct {
	frames []Frame
}

// Push saves f on top of the stack.
func (s *FrameStack) Push(f Frame) {
	s.frames = append(s.frames, f)
}

// Pop removes and returns the top frame.
func (s *FrameStack) Pop() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Peek returns the top frame without removing it.
func (s *FrameStack) Peek() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Len returns the number of saved frames.
func (s *FrameStack) Len() int { return len(s.frames) }

// Invocation is the execution record of one logical call through a join
// point. A call made with Context() while the invocation is running is
// nested: it gets its own Invocation whose frames are the enclosing calls.
// The mutable call state is only touched by the goroutine running the call;
// nested calls read the immutable snapshots carried by the context.
type Invocation struct {
	jp     *JoinPoint
	ctx    context.Context
	parent *Invocation
	frames []Frame // enclosing calls, outermost first
	depth  int
	done   atomic.Bool

	args     []any
	receiver any
	cursor   int

	// Set while After and AfterThrowing advice run.
	result any
	err    error
}

// scope marks a running invocation in a context, together with the state
// the invocation was in when the context was handed out.
type scope struct {
	inv   *Invocation
	frame Frame
}

// Context returns the call's context. Calls to the same join point made
// with it are nested calls.
func (inv *Invocation) Context() context.Context { return inv.ctx }

// Arguments returns the current arguments. Advice may modify the slice
// before proceeding.
func (inv *Invocation) Arguments() []any { return inv.args }

// SetArguments replaces the arguments seen by the rest of the chain.
func (inv *Invocation) SetArguments(args []any) { inv.args = args }

// Receiver returns the object the call was made on, or nil for static calls.
func (inv *Invocation) Receiver() any { return inv.receiver }

// Key identifies the join point being executed.
func (inv *Invocation) Key() Key { return inv.jp.key }

// Parent returns the enclosing invocation of a nested call.
func (inv *Invocation) Parent() *Invocation { return inv.parent }

// Depth is the nesting level: 1 inside the outermost call, 0 once the call
// has returned.
func (inv *Invocation) Depth() int {
	if inv.done.Load() {
		return 0
	}
	return inv.depth
}

// Frames returns a copy of the saved frames of enclosing calls.
func (inv *Invocation) Frames() *FrameStack {
	if inv.done.Load() {
		return &FrameStack{}
	}
	return &FrameStack{frames: append([]Frame(nil), inv.frames...)}
}

// Result returns the value produced by the chain below, inside After and
// AfterThrowing advice.
func (inv *Invocation) Result() any { return inv.result }

// Err returns the error raised by the chain below, inside After and
// AfterThrowing advice.
func (inv *Invocation) Err() error { return inv.err }

// nest starts a call enclosed by inv, which was at current when it handed
// out the context.
func (inv *Invocation) nest(current Frame) *Invocation {
	frames := make([]Frame, len(inv.frames), len(inv.frames)+1)
	copy(frames, inv.frames)
	return &Invocation{
		jp:     inv.jp,
		parent: inv,
		frames: append(frames, current),
		depth:  inv.depth + 1,
	}
}

func (inv *Invocation) snapshot(cursor int) Frame {
	return Frame{
		Arguments: append([]any(nil), inv.args...),
		Receiver:  inv.receiver,
		Cursor:    cursor,
	}
}

// withScope derives a context that marks inv as running at cursor.
func (inv *Invocation) withScope(ctx context.Context, cursor int) context.Context {
	return context.WithValue(ctx, invocationKey{inv.jp}, &scope{inv: inv, frame: inv.snapshot(cursor)})
}

// run executes the chain for the call.
func (inv *Invocation) run(ctx context.Context, receiver any, args []any) (any, error) {
	inv.receiver, inv.args = receiver, args
	inv.ctx = inv.withScope(ctx, 0)
	defer inv.done.Store(true)
	return inv.Proceed()
}

// Proceed runs the advice at the cursor, or the original behavior once the
// chain is exhausted. Around advice calls it to continue; calling it again
// runs the rest of the chain again.
func (inv *Invocation) Proceed() (any, error) {
	jp := inv.jp
	idx := inv.cursor
	if idx >= len(jp.chain) {
		return jp.terminal(inv.withScope(inv.ctx, idx), inv.receiver, inv.args)
	}
	inv.cursor++
	defer func() { inv.cursor = idx }()

	link := jp.chain[idx]
	switch link.Ref.Kind {
	case Before:
		if _, err := link.Func(inv); err != nil {
			jp.adviceFailed(link.Ref, err)
			return nil, err
		}
		return inv.Proceed()

	case After:
		res, err := inv.Proceed()
		prevRes, prevErr := inv.result, inv.err
		inv.result, inv.err = res, err
		_, adviceErr := link.Func(inv)
		inv.result, inv.err = prevRes, prevErr
		if adviceErr != nil {
			jp.adviceFailed(link.Ref, adviceErr)
			if err == nil {
				return nil, adviceErr
			}
		}
		return res, err

	case AfterThrowing:
		res, err := inv.Proceed()
		if err == nil {
			return res, nil
		}
		prevRes, prevErr := inv.result, inv.err
		inv.result, inv.err = res, err
		if _, adviceErr := link.Func(inv); adviceErr != nil {
			jp.adviceFailed(link.Ref, adviceErr)
		}
		inv.result, inv.err = prevRes, prevErr
		return res, err

	default:
		res, err := link.Func(inv)
		if err != nil {
			jp.adviceFailed(link.Ref, err)
		}
		return res, err
	}
}
