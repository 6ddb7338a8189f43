package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"faultline/internal/diag"
	"faultline/internal/frame"
	"faultline/internal/trace"
)

// Group runs goroutines whose panics are reported through a pipeline.
// A panicking goroutine fails the group with a *diag.PanicError; panics the
// pipeline cannot report are only logged.
type Group struct {
	p *Pipeline
	g *errgroup.Group
}

// Group returns a Group and a context cancelled when any goroutine fails.
func (p *Pipeline) Group(ctx context.Context) (*Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{p: p, g: g}, gctx
}

// SetLimit bounds the number of active goroutines.
func (g *Group) SetLimit(n int) {
	g.g.SetLimit(n)
}

// Go runs fn in a new goroutine.
func (g *Group) Go(fn func() error) {
	g.g.Go(func() error {
		return g.run(fn)
	})
}

func (g *Group) run(fn func() error) (err error) {
	boundary := frame.CallerFunction(0)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		st := frame.Recovered(0, boundary)
		if perr := g.p.Process(diag.AsError(r), st, frame.PanicCallee); perr != nil {
			trace.Log(g.p.Sink(), trace.LevelWarning, "group", perr.Error())
		}
		err = &diag.PanicError{Value: r}
	}()
	return fn()
}

// Wait blocks until all goroutines finish and returns the first error.
func (g *Group) Wait() error {
	return g.g.Wait()
}
