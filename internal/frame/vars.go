package frame

import (
	"errors"
	"fmt"
	"runtime"
)

// Var is a single named value reported with a frame.
type Var struct {
	Name  string
	Value any
}

// Vars is an ordered, read-only view of the values bound to a frame.
// Values are held by reference; they are not copied.
type Vars []Var

// Len returns the number of bound values.
func (v Vars) Len() int {
	return len(v)
}

// Get returns the value bound to name.
func (v Vars) Get(name string) (any, bool) {
	for _, x := range v {
		if x.Name == name {
			return x.Value, true
		}
	}
	return nil, false
}

// All iterates name/value pairs in binding order.
func (v Vars) All() func(yield func(string, any) bool) {
	return func(yield func(string, any) bool) {
		for _, x := range v {
			if !yield(x.Name, x.Value) {
				return
			}
		}
	}
}

// boundError carries values bound by the function that raised err.
type boundError struct {
	err      error
	function string
	vars     Vars
}

func (e *boundError) Error() string { return e.err.Error() }
func (e *boundError) Unwrap() error { return e.err }

// Format keeps fmt verbs of the wrapped error.
func (e *boundError) Format(s fmt.State, verb rune) {
	if f, ok := e.err.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	fmt.Fprintf(s, fmt.FormatString(s, verb), e.err)
}

// Bind attaches name/value pairs to err on behalf of the calling function.
// kv alternates names and values; a trailing name without value is bound to nil.
// Non-string names are formatted with %v.
func Bind(err error, kv ...any) error {
	return BindSkip(err, 1, kv...)
}

// BindSkip is Bind for helpers: skip counts additional callers to step over.
func BindSkip(err error, skip int, kv ...any) error {
	if err == nil {
		return nil
	}
	return &boundError{err: err, function: callerFunction(skip + 2), vars: pairs(kv)}
}

func pairs(kv []any) Vars {
	vars := make(Vars, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		name, ok := kv[i].(string)
		if !ok {
			name = fmt.Sprint(kv[i])
		}
		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}
		vars = append(vars, Var{Name: name, Value: value})
	}
	return vars
}

func callerFunction(skip int) string {
	var pcs [1]uintptr
	if runtime.Callers(skip+1, pcs[:]) == 0 {
		return ""
	}
	fr, _ := runtime.CallersFrames(pcs[:]).Next()
	return fr.Function
}

// BoundVars collects values bound anywhere in err's chain, keyed by the
// binding function. Bindings closer to the outermost wrapper come first.
func BoundVars(err error) map[string]Vars {
	var out map[string]Vars
	visit(err, func(e error) {
		b, ok := e.(*boundError)
		if !ok {
			return
		}
		if out == nil {
			out = make(map[string]Vars)
		}
		out[b.function] = append(out[b.function], b.vars...)
	})
	return out
}

// visit walks err's tree, following both Unwrap forms.
func visit(err error, fn func(error)) {
	for err != nil {
		fn(err)
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				visit(e, fn)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}

// Cause strips the wrappers added by WithStack and Bind from the top of
// err's chain. Wrappers of other packages stop the walk.
func Cause(err error) error {
	for {
		switch e := err.(type) {
		case *stackError:
			err = e.err
		case *boundError:
			err = e.err
		default:
			return err
		}
	}
}
