// Package frame turns captured call stacks into ordered frame descriptions.
//
// # Stack handles
//
// A Stack is the raw material: runtime frames as the Go runtime reports them,
// origin of the failure first. Handles come from three places:
//
//   - Callers captures the current goroutine stack.
//   - Recovered captures the stack of a panic from inside a deferred call,
//     dropping the recovery machinery and stopping at the catch site.
//   - FromError extracts a stack recorded when an error was created.
//
// # Walking
//
// Walk produces Info values lazily, catch site first and origin last. That
// is the reverse of the runtime's order. Source windows and exact positions
// are resolved per yielded frame; a frame whose source cannot be resolved
// has a nil Source, and the walk goes on.
//
// # Locals
//
// Go does not expose local variables at run time. Callers bind the values
// worth reporting to the error they raise (Bind), and Walk attaches them to
// the frame of the function that bound them.
package frame

import (
	"runtime"
	"strings"

	"faultline/internal/source"
)

// Info describes one stack level.
type Info struct {
	Name     string       // function name within its package
	Module   string       // package path
	Function string       // fully qualified runtime name
	PC       uintptr      // program counter of the frame
	Source   *source.Info // nil when the source cannot be resolved
	Locals   Vars
}

// Stack is a captured call stack, innermost (origin) frame first.
type Stack []runtime.Frame

// Len returns the stack depth.
func (s Stack) Len() int {
	return len(s)
}

// Empty reports whether the stack carries no frames.
func (s Stack) Empty() bool {
	return len(s) == 0
}

// Origin returns the frame where the failure originated.
func (s Stack) Origin() (runtime.Frame, bool) {
	if len(s) == 0 {
		return runtime.Frame{}, false
	}
	return s[0], true
}

// SplitFunction splits a runtime function name into its package path and
// the name within the package:
//
//	example.com/app/store.(*DB).Get  ->  example.com/app/store, (*DB).Get
//	main.main.func1                  ->  main, main.func1
func SplitFunction(function string) (module, name string) {
	slash := strings.LastIndexByte(function, '/')
	dot := strings.IndexByte(function[slash+1:], '.')
	if dot < 0 {
		return "", function
	}
	dot += slash + 1
	return function[:dot], function[dot+1:]
}

// CalleeIdent returns the identifier a call site would use to invoke
// function: the last name segment, without receiver, closure suffixes or
// type arguments. Anonymous functions yield "".
func CalleeIdent(function string) string {
	_, name := SplitFunction(function)
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	segs := strings.Split(name, ".")
	for i := len(segs) - 1; i >= 0; i-- {
		seg := strings.TrimSuffix(segs[i], "-fm")
		if isClosureSegment(seg) {
			return ""
		}
		if seg != "" && !strings.HasPrefix(seg, "(") {
			return seg
		}
	}
	return ""
}

func isClosureSegment(seg string) bool {
	if strings.HasPrefix(seg, "func") {
		seg = seg[len("func"):]
	}
	if seg == "" {
		return false
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isRuntime reports frames that belong to the Go runtime itself.
func isRuntime(function string) bool {
	return strings.HasPrefix(function, "runtime.")
}

// isGoroutineRoot reports frames below user code: the scheduler entry points
// and the test runner.
func isGoroutineRoot(function string) bool {
	switch function {
	case "runtime.main", "runtime.goexit", "testing.tRunner":
		return true
	}
	return false
}
