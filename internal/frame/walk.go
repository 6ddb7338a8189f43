package frame

import (
	"iter"
	"runtime"
	"slices"

	"faultline/internal/source"
)

// PanicCallee is the callee of the origin frame of a panic.
const PanicCallee = "panic"

// Options controls frame enrichment.
type Options struct {
	// Resolver provides source windows; nil leaves every Source empty.
	Resolver *source.Resolver
	// Positions enables exact code positions.
	Positions bool
	// Origin is the callee executing in the origin frame, PanicCallee for
	// panics. Empty lets position lookup pick the only call on the line.
	Origin string
	// Vars maps runtime function names to their bound values.
	Vars map[string]Vars
}

// Walk yields one Info per stack entry, catch site first and origin last.
// Frames are enriched as they are yielded.
func Walk(st Stack, opts Options) iter.Seq[Info] {
	return func(yield func(Info) bool) {
		bound := bindVars(st, opts.Vars)
		for i := len(st) - 1; i >= 0; i-- {
			callee := opts.Origin
			if i > 0 {
				callee = CalleeIdent(st[i-1].Function)
			}
			info := opts.describe(st[i], callee)
			info.Locals = bound[i]
			if !yield(info) {
				return
			}
		}
	}
}

// Collect walks st into a slice.
func Collect(st Stack, opts Options) []Info {
	return slices.Collect(Walk(st, opts))
}

// bindVars assigns each function's values to its innermost occurrence.
func bindVars(st Stack, vars map[string]Vars) map[int]Vars {
	if len(vars) == 0 {
		return nil
	}
	out := make(map[int]Vars, len(vars))
	for fn, v := range vars {
		for i, fr := range st {
			if fr.Function == fn {
				out[i] = v
				break
			}
		}
	}
	return out
}

func (o Options) describe(fr runtime.Frame, callee string) Info {
	module, name := SplitFunction(fr.Function)
	info := Info{
		Name:     name,
		Module:   module,
		Function: fr.Function,
		PC:       fr.PC,
	}
	if o.Resolver != nil {
		info.Source = o.resolve(fr, module, callee)
	}
	return info
}

// resolve never lets a resolver failure abort the walk.
func (o Options) resolve(fr runtime.Frame, module, callee string) (src *source.Info) {
	defer func() {
		if recover() != nil {
			src = nil
		}
	}()
	var pos *source.Position
	if o.Positions {
		pos = o.Resolver.Locate(fr.File, module, fr.Line, callee)
	}
	return o.Resolver.Resolve(fr.File, module, fr.Line, pos)
}
