package source

import (
	"go/ast"
	"go/parser"
	"go/token"
)

// Locate finds the exact span of the call being executed on line.
//
// The syntax tree of the file stands in for an instruction position table:
// among the call expressions covering line, the smallest one whose callee
// identifier equals callee wins. When no callee matches, a call that is the
// only one starting or ending on line is used. Anything else yields nil.
func (r *Resolver) Locate(file, module string, line int, callee string) *Position {
	if line <= 0 {
		return nil
	}
	pf := r.syntax(file, module)
	if pf == nil {
		return nil
	}

	var (
		best      *ast.CallExpr
		bestSize  int
		edge      []*ast.CallExpr
		matchName = callee != ""
	)
	ast.Inspect(pf.file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		start := pf.fset.Position(call.Pos())
		end := pf.fset.Position(call.End())
		if line < start.Line || line > end.Line {
			return true
		}
		if start.Line == line || end.Line == line {
			edge = append(edge, call)
		}
		if matchName && calleeName(call.Fun) == callee {
			size := int(call.End() - call.Pos())
			if best == nil || size < bestSize {
				best, bestSize = call, size
			}
		}
		return true
	})
	if best == nil && len(edge) == 1 {
		best = edge[0]
	}
	if best == nil {
		return nil
	}
	return callPosition(pf.fset, best)
}

func callPosition(fset *token.FileSet, call *ast.CallExpr) *Position {
	start := fset.Position(call.Pos())
	end := fset.Position(call.End())
	if !start.IsValid() || !end.IsValid() {
		return nil
	}
	pos := &Position{
		StartLine: start.Line,
		EndLine:   end.Line,
		StartCol:  start.Column - 1,
		EndCol:    end.Column - 1,
	}
	if id := calleeIdent(call.Fun); id != nil && pos.SingleLine() {
		left := fset.Position(id.Pos())
		right := fset.Position(id.End())
		if left.Line == pos.StartLine && right.Line == pos.StartLine {
			pos.Anchor = &Anchor{Left: left.Column - 1, Right: right.Column - 1}
		}
	}
	if !pos.Valid() {
		return nil
	}
	return pos
}

func calleeIdent(fun ast.Expr) *ast.Ident {
	switch e := fun.(type) {
	case *ast.Ident:
		return e
	case *ast.SelectorExpr:
		return e.Sel
	case *ast.IndexExpr:
		return calleeIdent(e.X)
	case *ast.IndexListExpr:
		return calleeIdent(e.X)
	case *ast.ParenExpr:
		return calleeIdent(e.X)
	}
	return nil
}

func calleeName(fun ast.Expr) string {
	if id := calleeIdent(fun); id != nil {
		return id.Name
	}
	return ""
}

func (r *Resolver) syntax(file, module string) *parsedFile {
	key := cacheKey(file, module)
	r.mu.Lock()
	pf, ok := r.parsed[key]
	r.mu.Unlock()
	if ok {
		return pf
	}

	if f := r.file(file, module); f != nil {
		fset := token.NewFileSet()
		parsed, err := parser.ParseFile(fset, f.Path, f.Content, parser.SkipObjectResolution)
		// a partial tree is still usable for lookup
		if parsed != nil && (err == nil || len(parsed.Decls) > 0) {
			pf = &parsedFile{fset: fset, file: parsed}
		}
	}

	r.mu.Lock()
	r.parsed[key] = pf
	r.mu.Unlock()
	return pf
}
