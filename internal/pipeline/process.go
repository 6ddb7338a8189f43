package pipeline

import (
	"errors"
	"fmt"
	"reflect"

	"faultline/internal/diag"
	"faultline/internal/fingerprint"
	"faultline/internal/frame"
	"faultline/internal/trace"
)

var (
	// ErrNoStack reports a failure without a stack; nothing was processed.
	ErrNoStack = errors.New("no stack attached")
	// ErrPassThrough reports a sentinel that must be re-raised unprocessed.
	ErrPassThrough = errors.New("sentinel passed through")
)

// Process runs one failure through the pipeline. st is the failure's stack,
// origin the callee executing in its innermost frame (frame.PanicCallee for
// panics, "" when unknown).
//
// Process returns nil once the failure is reported. Otherwise the result
// wraps diag.ErrNotInitialized, ErrNoStack or ErrPassThrough, together with
// err. When a fail-fast check fires, Process does not return.
func (p *Pipeline) Process(err error, st frame.Stack, origin string) error {
	if !p.initialized.Load() {
		return fmt.Errorf("%w: %w", diag.ErrNotInitialized, err)
	}
	if st.Empty() {
		return fmt.Errorf("%w: %w", ErrNoStack, err)
	}
	if diag.IsSentinel(err) {
		return fmt.Errorf("%w: %w", ErrPassThrough, err)
	}

	s := p.snapshot()
	t := reflect.TypeOf(diag.Cause(err))
	for _, ff := range s.failFast {
		if mustDie(s.sink, ff, t, err, st) {
			trace.Log(s.sink, trace.LevelError, "failfast", diag.Message(err),
				"check", fmt.Sprintf("%T", ff), "code", fmt.Sprint(s.cfg.FailFastCode))
			p.terminate(s.sink, s.cfg.FailFastCode)
		}
	}

	span := trace.Begin(s.sink, "process")
	info := p.assemble(s, err, st, origin)
	for _, r := range s.response {
		respond(s.sink, r, info)
	}
	span.WithExtra("responders", fmt.Sprint(len(s.response))).End(info.Fingerprint.String())
	return nil
}

func (p *Pipeline) assemble(s state, err error, st frame.Stack, origin string) diag.ErrorInfo {
	stack := frame.Collect(st, frame.Options{
		Resolver:  s.resolver,
		Positions: s.positions,
		Origin:    origin,
		Vars:      frame.BoundVars(err),
	})
	typeName := diag.TypeName(err)
	fp := s.engine.Compute(fingerprint.Input{
		Name:       s.cfg.Name,
		Version:    s.cfg.Version,
		TypeName:   diag.SimpleName(typeName),
		Stack:      stack,
		RootModule: s.cfg.RootModule,
		Err:        err,
	})
	return diag.ErrorInfo{
		Name:          s.cfg.Name,
		Version:       s.cfg.Version,
		Fingerprint:   fp,
		Stack:         stack,
		Exception:     err,
		ExceptionType: typeName,
		Timestamp:     p.now(),
	}
}

// mustDie evaluates one check; a panicking check counts as false.
func mustDie(sink trace.Tracer, ff FailFast, t reflect.Type, err error, st frame.Stack) (die bool) {
	defer func() {
		if rec := recover(); rec != nil {
			trace.Log(sink, trace.LevelWarning, "failfast", fmt.Sprint(rec),
				"check", fmt.Sprintf("%T", ff), "panic", "true")
			die = false
		}
	}()
	return ff.MustDie(t, err, st)
}

// respond calls one responder; its failure never reaches the caller.
func respond(sink trace.Tracer, r Responder, info diag.ErrorInfo) {
	defer func() {
		if rec := recover(); rec != nil {
			trace.Log(sink, trace.LevelWarning, "respond", fmt.Sprint(rec),
				"responder", fmt.Sprintf("%T", r), "panic", "true")
		}
	}()
	if err := r.Respond(info); err != nil {
		trace.Log(sink, trace.LevelWarning, "respond", err.Error(),
			"responder", fmt.Sprintf("%T", r))
	}
}

// terminate ends the process with code. It never returns: no deferred
// functions run and no responder is called.
func (p *Pipeline) terminate(sink trace.Tracer, code int) {
	_ = sink.Flush()
	p.exit(code)
	panic("unreachable: process exit returned")
}
