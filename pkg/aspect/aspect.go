// Package aspect holds aspect declarations and compiles them into advice
// bindings.
package aspect

import (
	"fmt"

	"github.com/chazu/weft/pkg/ast"
	"github.com/chazu/weft/pkg/runtime"
)

// Aspect is a named bundle of pointcut and advice declarations.
type Aspect struct {
	ID string `yaml:"id"`

	// Pointcuts are named expressions that advice can refer to as
	// "$this->name" (or "<ID>->name" from another aspect).
	Pointcuts map[string]string `yaml:"pointcuts,omitempty"`

	Advice []Declaration `yaml:"advice"`
}

// Declaration declares one piece of advice.
type Declaration struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"` // Before, After, Around or AfterThrowing
	Pointcut string `yaml:"pointcut"`
	Order    int    `yaml:"order,omitempty"`

	Func runtime.AdviceFunc `yaml:"-"`
}

// Binding is a compiled advice declaration.
type Binding struct {
	Aspect   string
	Name     string
	Kind     runtime.AdviceKind
	Order    int
	Pointcut ast.Node // With references inlined
	Source   string   // As declared

	Seq   int // Registration sequence of the aspect
	Index int // Position of the declaration within its aspect

	Func runtime.AdviceFunc
}

// Ref returns the serializable reference to the binding's advice.
func (b Binding) Ref() runtime.AdviceRef {
	return runtime.AdviceRef{Aspect: b.Aspect, Name: b.Name, Kind: b.Kind, Order: b.Order}
}

func (b Binding) String() string {
	return fmt.Sprintf("%s %s->%s on %s", b.Kind, b.Aspect, b.Name, b.Pointcut)
}

// Less orders bindings by (Order, aspect registration sequence, declaration index).
func Less(a, b Binding) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.Index < b.Index
}

// adviceName returns the declaration's name, defaulting to its position.
func adviceName(d Declaration, index int) string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("advice%d", index)
}
