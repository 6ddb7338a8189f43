// Package failfast holds predicates that decide whether a failure must
// terminate the process instead of being reported.
package failfast

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	"faultline/internal/diag"
	"faultline/internal/frame"
)

// FailFast decides whether a failure is fatal. t is the dynamic type of v.
type FailFast interface {
	MustDie(t reflect.Type, v error, st frame.Stack) bool
}

// Func adapts a function to FailFast.
type Func func(t reflect.Type, v error, st frame.Stack) bool

func (f Func) MustDie(t reflect.Type, v error, st frame.Stack) bool {
	return f(t, v, st)
}

// Always terminates on every failure.
func Always() FailFast {
	return Func(func(reflect.Type, error, frame.Stack) bool { return true })
}

// Never terminates.
func Never() FailFast {
	return Func(func(reflect.Type, error, frame.Stack) bool { return false })
}

// OnType terminates when v, or any error it wraps, has one of the types.
func OnType(types ...reflect.Type) FailFast {
	return Func(func(t reflect.Type, v error, _ frame.Stack) bool {
		if slices.Contains(types, t) {
			return true
		}
		return anyInChain(v, func(e error) bool {
			return slices.Contains(types, reflect.TypeOf(e))
		})
	})
}

// OnTypeName is OnType for type names as printed by reflect, e.g.
// "*runtime.TypeAssertionError".
func OnTypeName(names ...string) FailFast {
	return Func(func(t reflect.Type, v error, _ frame.Stack) bool {
		if t != nil && slices.Contains(names, t.String()) {
			return true
		}
		return anyInChain(v, func(e error) bool {
			return slices.Contains(names, reflect.TypeOf(e).String())
		})
	})
}

// OnError terminates when v matches one of targets by errors.Is.
func OnError(targets ...error) FailFast {
	return Func(func(_ reflect.Type, v error, _ frame.Stack) bool {
		for _, target := range targets {
			if errors.Is(v, target) {
				return true
			}
		}
		return false
	})
}

// matchTimeout bounds a single message match.
const matchTimeout = 100 * time.Millisecond

// OnMessage terminates when the error message matches one of patterns.
// Patterns use .NET/Perl syntax (lookarounds, inline flags such as (?i)).
// Patterns and messages are compared in Unicode NFC form.
func OnMessage(patterns ...string) (FailFast, error) {
	res := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(norm.NFC.String(p), regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("failfast: bad message pattern %q: %w", p, err)
		}
		re.MatchTimeout = matchTimeout
		res = append(res, re)
	}
	return Func(func(_ reflect.Type, v error, _ frame.Stack) bool {
		if v == nil {
			return false
		}
		msg := norm.NFC.String(diag.Message(v))
		for _, re := range res {
			// a timed-out match counts as no match
			if ok, err := re.MatchString(msg); err == nil && ok {
				return true
			}
		}
		return false
	}), nil
}

// Any terminates when at least one of checks does. Evaluation stops at the
// first positive verdict.
func Any(checks ...FailFast) FailFast {
	return Func(func(t reflect.Type, v error, st frame.Stack) bool {
		for _, c := range checks {
			if c.MustDie(t, v, st) {
				return true
			}
		}
		return false
	})
}

func anyInChain(err error, match func(error) bool) bool {
	for err != nil {
		if match(err) {
			return true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if anyInChain(e, match) {
					return true
				}
			}
			return false
		}
		err = errors.Unwrap(err)
	}
	return false
}
