package frame

import (
	"errors"
	"runtime"
)

// maxDepth bounds stack capture; deeper stacks are truncated at the root end.
const maxDepth = 128

// Callers captures the calling goroutine's stack. skip 0 starts at the
// caller of Callers.
func Callers(skip int) Stack {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	return expand(pcs[:n])
}

func expand(pcs []uintptr) Stack {
	if len(pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs)
	out := make(Stack, 0, len(pcs))
	for {
		fr, more := frames.Next()
		if fr.Function != "" || fr.File != "" {
			out = append(out, fr)
		}
		if !more {
			break
		}
	}
	return out
}

// Recovered captures the stack of the panic being recovered. It must be
// called from the deferred function that called recover(); skip counts
// extra helpers between that function and Recovered.
//
// Frames up to and including the runtime's panic machinery are dropped, so
// the result starts at the function that panicked. When boundary names a
// function (as reported by the runtime), the stack ends with the boundary's
// caller, the catch site; the boundary itself is excluded. Without a boundary
// the stack runs down to the goroutine root.
func Recovered(skip int, boundary string) Stack {
	st := Callers(skip + 1)
	st = trimPanic(st)
	if boundary != "" {
		for i, fr := range st {
			if fr.Function != boundary {
				continue
			}
			if i+1 < len(st) {
				return append(st[:i:i], st[i+1])
			}
			return st[:i]
		}
	}
	return trimRoot(st)
}

// trimPanic drops everything above the innermost non-runtime frame that sits
// below runtime.gopanic.
func trimPanic(st Stack) Stack {
	idx := -1
	for i, fr := range st {
		if fr.Function == "runtime.gopanic" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return st
	}
	st = st[idx+1:]
	for len(st) > 0 && isRuntime(st[0].Function) {
		st = st[1:]
	}
	return st
}

func trimRoot(st Stack) Stack {
	for i, fr := range st {
		if isGoroutineRoot(fr.Function) {
			return st[:i]
		}
	}
	return st
}

// Stacker is implemented by errors that recorded the stack they were created on.
type Stacker interface {
	Stack() Stack
}

// callersError is implemented by errors from libraries that record raw
// program counters.
type callersError interface {
	Callers() []uintptr
}

// FromError returns the stack recorded by the innermost error in err's chain
// that carries one. The stack ends at catchSite when that function appears in
// it; otherwise it runs down to the goroutine root.
func FromError(err error, catchSite string) Stack {
	var st Stack
	visit(err, func(e error) {
		switch x := e.(type) {
		case Stacker:
			st = x.Stack()
		case callersError:
			st = expand(x.Callers())
		}
	})
	if st.Empty() {
		return nil
	}
	if catchSite != "" {
		for i, fr := range st {
			if fr.Function == catchSite {
				return st[:i+1]
			}
		}
	}
	return trimRoot(st)
}

// stackError records the stack at the point it was created.
type stackError struct {
	err   error
	stack Stack
}

func (e *stackError) Error() string { return e.err.Error() }
func (e *stackError) Unwrap() error { return e.err }
func (e *stackError) Stack() Stack  { return e.stack }

// WithStack records the caller's stack on err. Errors that already carry a
// stack are returned unchanged.
func WithStack(err error) error {
	return WithStackSkip(err, 1)
}

// WithStackSkip is WithStack for helpers that wrap it.
func WithStackSkip(err error, skip int) error {
	if err == nil {
		return nil
	}
	var s Stacker
	if errors.As(err, &s) {
		return err
	}
	return &stackError{err: err, stack: Callers(skip + 1)}
}

// CallerFunction returns the runtime name of a calling function.
// CallerFunction(0) names the function that calls CallerFunction.
func CallerFunction(skip int) string {
	return callerFunction(skip + 2)
}
