package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/weft/pkg/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var barKey = Key{Owner: "example.com/app.Foo", Member: "bar", Kind: model.Method}

// trace collects events in order.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (tr *trace) add(format string, args ...any) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.events = append(tr.events, fmt.Sprintf(format, args...))
}

func advice(kind AdviceKind, name string, fn AdviceFunc) Advice {
	return Advice{Ref: AdviceRef{Aspect: "test", Name: name, Kind: kind}, Func: fn}
}

func plusOne(tr *trace) Terminal {
	return func(ctx context.Context, receiver any, args []any) (any, error) {
		if tr != nil {
			tr.add("body(%v)", args[0])
		}
		return args[0].(int) + 1, nil
	}
}

func TestAroundWrapsLaterAdvice(t *testing.T) {
	tr := &trace{}
	jp := NewJoinPoint(barKey, plusOne(tr), []Advice{
		advice(Around, "A", func(inv *Invocation) (any, error) {
			tr.add("A:pre")
			res, err := inv.Proceed()
			tr.add("A:post")
			return res, err
		}),
		advice(Before, "B", func(inv *Invocation) (any, error) {
			tr.add("B")
			return nil, nil
		}),
	})

	res, err := jp.Invoke(context.Background(), nil, []any{1})
	require.NoError(t, err)
	assert.Equal(t, 2, res)
	assert.Equal(t, []string{"A:pre", "B", "body(1)", "A:post"}, tr.events)
}

func TestAfterRunsInReverseOrder(t *testing.T) {
	tr := &trace{}
	record := func(kind AdviceKind, name string) Advice {
		return advice(kind, name, func(inv *Invocation) (any, error) {
			tr.add("%s", name)
			return nil, nil
		})
	}
	jp := NewJoinPoint(barKey, plusOne(tr), []Advice{
		record(Before, "before1"),
		record(After, "after1"),
		record(Before, "before2"),
		record(After, "after2"),
	})

	_, err := jp.Invoke(context.Background(), nil, []any{0})
	require.NoError(t, err)
	assert.Equal(t, []string{"before1", "before2", "body(0)", "after2", "after1"}, tr.events)
}

func TestBarScenario(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	jp := NewJoinPoint(barKey, plusOne(nil), []Advice{
		advice(Before, "logEntry", func(inv *Invocation) (any, error) {
			logger.Info("entering", zap.Stringer("joinpoint", inv.Key()), zap.Any("args", inv.Arguments()))
			return nil, nil
		}),
		advice(Around, "double", func(inv *Invocation) (any, error) {
			res, err := inv.Proceed()
			if err != nil {
				return nil, err
			}
			return res.(int) * 2, nil
		}),
	})

	for i := 1; i <= 3; i++ {
		res, err := jp.Invoke(context.Background(), nil, []any{5})
		require.NoError(t, err)
		assert.Equal(t, 12, res)
		assert.Equal(t, i, logs.FilterMessage("entering").Len())
	}
}

func TestAroundShortCircuit(t *testing.T) {
	tr := &trace{}
	jp := NewJoinPoint(barKey, plusOne(tr), []Advice{
		advice(Around, "cache", func(inv *Invocation) (any, error) {
			tr.add("cache")
			return 42, nil
		}),
		advice(Before, "later", func(inv *Invocation) (any, error) {
			tr.add("later")
			return nil, nil
		}),
	})

	res, err := jp.Invoke(context.Background(), nil, []any{1})
	require.NoError(t, err)
	assert.Equal(t, 42, res)
	assert.Equal(t, []string{"cache"}, tr.events)
}

func TestAroundCanProceedTwice(t *testing.T) {
	tr := &trace{}
	jp := NewJoinPoint(barKey, plusOne(tr), []Advice{
		advice(Around, "retry", func(inv *Invocation) (any, error) {
			if _, err := inv.Proceed(); err != nil {
				return nil, err
			}
			return inv.Proceed()
		}),
		advice(Before, "inner", func(inv *Invocation) (any, error) {
			tr.add("inner")
			return nil, nil
		}),
	})

	_, err := jp.Invoke(context.Background(), nil, []any{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"inner", "body(1)", "inner", "body(1)"}, tr.events)
}

func TestBeforeErrorAbortsCall(t *testing.T) {
	errDenied := errors.New("denied")
	tr := &trace{}
	jp := NewJoinPoint(barKey, plusOne(tr), []Advice{
		advice(Before, "guard", func(inv *Invocation) (any, error) {
			return nil, errDenied
		}),
	})

	_, err := jp.Invoke(context.Background(), nil, []any{1})
	assert.ErrorIs(t, err, errDenied)
	assert.Empty(t, tr.events)
}

func TestAfterHasFinallySemantics(t *testing.T) {
	errBody := errors.New("body failed")
	errAfter := errors.New("after failed")

	failing := func(ctx context.Context, receiver any, args []any) (any, error) {
		return nil, errBody
	}

	var seen error
	jp := NewJoinPoint(barKey, failing, []Advice{
		advice(After, "cleanup", func(inv *Invocation) (any, error) {
			seen = inv.Err()
			return nil, errAfter
		}),
	})

	_, err := jp.Invoke(context.Background(), nil, []any{1})
	assert.ErrorIs(t, err, errBody, "the body's error wins over the advice's")
	assert.ErrorIs(t, seen, errBody)

	jp = NewJoinPoint(barKey, plusOne(nil), []Advice{
		advice(After, "cleanup", func(inv *Invocation) (any, error) {
			assert.Equal(t, 2, inv.Result())
			return nil, errAfter
		}),
	})
	_, err = jp.Invoke(context.Background(), nil, []any{1})
	assert.ErrorIs(t, err, errAfter)
}

func TestAfterThrowingRethrows(t *testing.T) {
	errBoom := errors.New("boom")
	calls := 0
	var seen error

	body := func(ctx context.Context, receiver any, args []any) (any, error) {
		if args[0].(int) < 0 {
			return nil, errBoom
		}
		return args[0], nil
	}
	jp := NewJoinPoint(barKey, body, []Advice{
		advice(AfterThrowing, "observe", func(inv *Invocation) (any, error) {
			calls++
			seen = inv.Err()
			return 99, nil
		}),
	})

	res, err := jp.Invoke(context.Background(), nil, []any{3})
	require.NoError(t, err)
	assert.Equal(t, 3, res)
	assert.Equal(t, 0, calls, "not run on success")

	_, err = jp.Invoke(context.Background(), nil, []any{-1})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, seen, errBoom)
}

func TestPanicsPropagate(t *testing.T) {
	var captured *Invocation
	body := func(ctx context.Context, receiver any, args []any) (any, error) {
		panic("body panicked")
	}
	jp := NewJoinPoint(barKey, body, []Advice{
		advice(Before, "capture", func(inv *Invocation) (any, error) {
			captured = inv
			return nil, nil
		}),
	})

	assert.PanicsWithValue(t, "body panicked", func() {
		_, _ = jp.Invoke(context.Background(), nil, []any{1})
	})
	require.NotNil(t, captured)
	assert.Equal(t, 0, captured.Depth())
}

func TestReentrantInvocation(t *testing.T) {
	var jp *JoinPoint
	factorial := func(ctx context.Context, receiver any, args []any) (any, error) {
		n := args[0].(int)
		if n <= 1 {
			return 1, nil
		}
		r, err := jp.Invoke(ctx, receiver, []any{n - 1})
		if err != nil {
			return nil, err
		}
		return n * r.(int), nil
	}

	var (
		outer       *Invocation
		depths      []int
		afterArgs   []any
		afterRecvs  []any
		stackHeight []int
	)
	jp = NewJoinPoint(barKey, factorial, []Advice{
		advice(Before, "enter", func(inv *Invocation) (any, error) {
			if outer == nil {
				outer = inv
			}
			depths = append(depths, inv.Depth())
			stackHeight = append(stackHeight, inv.Frames().Len())
			return nil, nil
		}),
		advice(After, "exit", func(inv *Invocation) (any, error) {
			afterArgs = append(afterArgs, inv.Arguments()[0])
			afterRecvs = append(afterRecvs, inv.Receiver())
			return nil, nil
		}),
	})

	res, err := jp.Invoke(context.Background(), "recv", []any{4})
	require.NoError(t, err)
	assert.Equal(t, 24, res)

	assert.Equal(t, []int{1, 2, 3, 4}, depths, "full chain runs on every nested call")
	assert.Equal(t, []int{0, 1, 2, 3}, stackHeight, "stack depth tracks reentrancy depth")
	assert.Equal(t, []any{1, 2, 3, 4}, afterArgs, "arguments restored after each nested call")
	assert.Equal(t, []any{"recv", "recv", "recv", "recv"}, afterRecvs)

	require.NotNil(t, outer)
	assert.Equal(t, 0, outer.Depth())
	assert.Equal(t, 0, outer.Frames().Len())
}

func TestFanOutCallsGetSiblingInvocations(t *testing.T) {
	const workers = 8

	var jp *JoinPoint
	fanOut := func(ctx context.Context, receiver any, args []any) (any, error) {
		if n := args[0].(int); n > 0 {
			return n, nil
		}
		var wg sync.WaitGroup
		for i := 1; i <= workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = jp.Invoke(ctx, receiver, []any{i})
			}(i)
		}
		wg.Wait()
		return 0, nil
	}

	var (
		mu      sync.Mutex
		outer   *Invocation
		depths  = map[int]int{}
		parents = map[int]*Invocation{}
		frames  = map[int][]Frame{}
	)
	jp = NewJoinPoint(barKey, fanOut, []Advice{
		advice(Before, "record", func(inv *Invocation) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			n := inv.Arguments()[0].(int)
			if n == 0 {
				outer = inv
			}
			depths[n] = inv.Depth()
			parents[n] = inv.Parent()
			frames[n] = inv.Frames().frames
			return nil, nil
		}),
		advice(After, "check", func(inv *Invocation) (any, error) {
			if inv.Arguments()[0].(int) == 0 {
				assert.Equal(t, 1, inv.Depth())
				assert.Equal(t, 0, inv.Frames().Len())
			}
			return nil, nil
		}),
	})

	_, err := jp.Invoke(context.Background(), "recv", []any{0})
	require.NoError(t, err)

	require.NotNil(t, outer)
	assert.Equal(t, 1, depths[0])
	assert.Nil(t, parents[0])
	for i := 1; i <= workers; i++ {
		assert.Equal(t, 2, depths[i], "worker %d", i)
		assert.Same(t, outer, parents[i], "worker %d", i)
		require.Len(t, frames[i], 1, "worker %d", i)
		assert.Equal(t, []any{0}, frames[i][0].Arguments)
		assert.Equal(t, "recv", frames[i][0].Receiver)
	}
	assert.Equal(t, 0, outer.Depth())
}

func TestIndependentCallsDoNotShareInvocation(t *testing.T) {
	var first, second *Invocation
	jp := NewJoinPoint(barKey, plusOne(nil), []Advice{
		advice(Before, "capture", func(inv *Invocation) (any, error) {
			if first == nil {
				first = inv
			} else {
				second = inv
			}
			return nil, nil
		}),
	})

	ctx := context.Background()
	_, err := jp.Invoke(ctx, nil, []any{1})
	require.NoError(t, err)
	// A finished invocation's context starts a fresh call.
	_, err = jp.Invoke(first.Context(), nil, []any{2})
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 0, first.Depth())
}

func TestConcurrentTopLevelCalls(t *testing.T) {
	jp := NewJoinPoint(barKey, plusOne(nil), []Advice{
		advice(Around, "double", func(inv *Invocation) (any, error) {
			res, err := inv.Proceed()
			if err != nil {
				return nil, err
			}
			return res.(int) * 2, nil
		}),
	})

	var wg sync.WaitGroup
	results := make([]any, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := jp.Invoke(context.Background(), nil, []any{i})
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		assert.Equal(t, (i+1)*2, res)
	}
}

func TestFrameStack(t *testing.T) {
	var s FrameStack
	_, ok := s.Pop()
	assert.False(t, ok)

	s.Push(Frame{Arguments: []any{1}, Receiver: "a", Cursor: 0})
	s.Push(Frame{Arguments: []any{2}, Receiver: "b", Cursor: 3})
	assert.Equal(t, 2, s.Len())

	top, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, top.Cursor)

	f, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", f.Receiver)
	f, ok = s.Pop()
	require.True(t, ok)
	assert.Equal(t, []any{1}, f.Arguments)
	assert.Equal(t, 0, s.Len())
}

func TestAdviceKindText(t *testing.T) {
	for _, k := range []AdviceKind{Before, After, Around, AfterThrowing} {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var got AdviceKind
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, k, got)
	}

	k, ok := ParseAdviceKind("afterthrowing")
	assert.True(t, ok)
	assert.Equal(t, AfterThrowing, k)

	_, ok = ParseAdviceKind("Surrounding")
	assert.False(t, ok)
	var bad AdviceKind
	assert.Error(t, bad.UnmarshalText([]byte("Surrounding")))
}

func TestCountingInvocations(t *testing.T) {
	var n atomic.Int32
	jp := NewJoinPoint(barKey, plusOne(nil), []Advice{
		advice(Before, "count", func(inv *Invocation) (any, error) {
			n.Add(1)
			return nil, nil
		}),
	})
	for i := 0; i < 5; i++ {
		_, err := jp.Invoke(context.Background(), nil, []any{i})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), n.Load())
	assert.Equal(t, []AdviceRef{{Aspect: "test", Name: "count", Kind: Before}}, jp.Chain())
}
