package weave

import (
	"errors"
	"fmt"
)

// ErrUnsupportedKind indicates a pointcut that selects a member kind the
// structural model does not describe.
var ErrUnsupportedKind = errors.New("pointcut uses a member kind the model cannot describe")

// Error aborts a weave. It names the aspect, the pointcut source and the
// element of the pointcut the model cannot evaluate: a member kind the
// source does not describe, or a reference left unresolved.
type Error struct {
	Aspect   string
	Pointcut string
	Element  string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("weave: aspect %s: pointcut `%s`: %s", e.Aspect, e.Pointcut, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
