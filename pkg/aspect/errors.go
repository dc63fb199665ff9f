package aspect

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned by Register after Freeze.
	ErrFrozen = errors.New("aspect registry is frozen")

	// ErrEmptyAspectID is returned for an aspect without an identity.
	ErrEmptyAspectID = errors.New("aspect has no id")

	// ErrInvalidAspectID is returned for an id that cannot appear in a
	// pointcut reference. Ids are letters, digits, '_' and the separators
	// '.', '/' and '\'.
	ErrInvalidAspectID = errors.New("invalid aspect id")

	// ErrUnresolvedReference indicates a pointcut reference to an unknown
	// aspect or pointcut name.
	ErrUnresolvedReference = errors.New("unresolved pointcut reference")

	// ErrCyclicReference indicates named pointcuts that refer to each other.
	ErrCyclicReference = errors.New("cyclic pointcut reference")

	// ErrUnknownAdvice is returned by Resolve for a reference the registry
	// does not hold.
	ErrUnknownAdvice = errors.New("unknown advice")

	// ErrNoAdviceBody is returned by Resolve for advice declared without a
	// callable (e.g. loaded from YAML without a matching Library entry).
	ErrNoAdviceBody = errors.New("advice has no body")
)

// InvalidAdviceError reports an advice declaration the registry cannot accept.
type InvalidAdviceError struct {
	Aspect string
	Advice string
	Kind   string
	Reason string
}

func (e *InvalidAdviceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("aspect %s: advice %q: %s", e.Aspect, e.Advice, e.Reason)
	}
	return fmt.Sprintf("aspect %s: advice %q has unsupported kind %q (want Before, After, Around or AfterThrowing)",
		e.Aspect, e.Advice, e.Kind)
}

// PointcutCompilationError wraps a failure to compile a pointcut: a syntax
// error, or a reference that cannot be resolved.
type PointcutCompilationError struct {
	Aspect string
	Advice string // Advice name, or "pointcut <name>" for named pointcuts
	Source string // Pointcut text as declared, before $this substitution
	Cause  error
}

func (e *PointcutCompilationError) Error() string {
	return fmt.Sprintf("aspect %s: %s: cannot compile pointcut `%s`: %v", e.Aspect, e.Advice, e.Source, e.Cause)
}

func (e *PointcutCompilationError) Unwrap() error {
	return e.Cause
}
