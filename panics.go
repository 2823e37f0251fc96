package forksum

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

type runtimeError struct{ error }

func (runtimeError) RuntimeError() {}

func (e runtimeError) Unwrap() error { return e.error }

// wrapPanic adds the stack trace of the panicking task to a recovered value, keeping errors as errors
// and runtime errors as runtime errors.
func wrapPanic(p any) any {
	if p == nil {
		return nil
	}
	s := fmt.Sprintf("%v\n%s\nrethrown at", p, debug.Stack())
	err, isError := p.(error)
	if !isError {
		return s
	}
	r := &taskPanic{msg: s, err: err}
	if _, isRuntimeError := p.(runtime.Error); isRuntimeError {
		return runtimeError{r}
	}
	return r
}

// taskPanic keeps the original error reachable through errors.Is and errors.As.
type taskPanic struct {
	msg string
	err error
}

func (e *taskPanic) Error() string { return e.msg }

func (e *taskPanic) Unwrap() error { return e.err }
