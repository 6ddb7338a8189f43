package fingerprint

import (
	"strconv"
	"strings"

	"faultline/internal/frame"
	"faultline/internal/source"
)

// Input is everything a strategy may derive fingerprint parts from.
type Input struct {
	Name       string
	Version    string
	TypeName   string       // without package qualifier, e.g. "*PathError"
	Stack      []frame.Info // catch site first
	RootModule string
	Err        error
}

// Strategy selects the parts that identify a failure class.
type Strategy interface {
	Parts(in Input) []string
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(in Input) []string

func (f StrategyFunc) Parts(in Input) []string {
	return f(in)
}

// Static yields the same parts for every failure.
type Static []string

func (s Static) Parts(Input) []string {
	return s
}

// Default identifies a failure by service, error type, the catch site and
// the outermost frame of the application's own code.
//
// Parts: name, version, type; then for the catch site and for the root
// module frame (if any) the file name and line when the source is known,
// and the function name in between.
type Default struct{}

func (Default) Parts(in Input) []string {
	parts := []string{in.Name, in.Version, in.TypeName}
	if len(in.Stack) == 0 {
		return parts
	}
	parts = appendFrame(parts, in.Stack[0])
	if in.RootModule != "" {
		for _, f := range in.Stack {
			if InModule(f.Module, in.RootModule) {
				parts = appendFrame(parts, f)
				break
			}
		}
	}
	return parts
}

func appendFrame(parts []string, f frame.Info) []string {
	if f.Source != nil {
		name := f.Source.FileName
		if name == "" {
			name = source.Unknown
		}
		parts = append(parts, name)
	}
	parts = append(parts, f.Name)
	if f.Source != nil {
		parts = append(parts, strconv.Itoa(f.Source.CurrentLine))
	}
	return parts
}

// InModule reports whether module is root or nested under it. Both package
// paths ("root/sub") and dotted names ("root.sub") count as nested.
func InModule(module, root string) bool {
	if module == "" || root == "" {
		return false
	}
	if module == root {
		return true
	}
	return strings.HasPrefix(module, root+"/") || strings.HasPrefix(module, root+".")
}
