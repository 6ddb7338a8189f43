package pipeline

import (
	"errors"
	"sync/atomic"

	"faultline/internal/diag"
	"faultline/internal/frame"
)

// hook is the pipeline installed by Setup with CatchAll.
var hook atomic.Pointer[Pipeline]

// Hooked returns the pipeline installed with CatchAll, or nil.
func Hooked() *Pipeline {
	return hook.Load()
}

// Run calls fn and processes a panic escaping from it. The caller of Run is
// the catch site.
//
// Run returns nil when fn completes, the panic as an error once it has been
// reported, and an error wrapping diag.ErrNotInitialized before Setup.
// Sentinel panics are re-raised.
func (p *Pipeline) Run(fn func()) (err error) {
	boundary := frame.CallerFunction(0)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if perr := p.ProcessPanic(r, frame.Recovered(0, boundary)); perr != nil {
			err = perr
			return
		}
		err = diag.AsError(r)
	}()
	fn()
	return nil
}

// ProcessPanic processes a value recovered from a panic, st being the stack
// captured with frame.Recovered. Sentinels are re-raised. The result is nil
// once the panic is reported, the Process failure otherwise.
func (p *Pipeline) ProcessPanic(r any, st frame.Stack) error {
	perr := p.Process(diag.AsError(r), st, frame.PanicCallee)
	if errors.Is(perr, ErrPassThrough) {
		panic(r)
	}
	return perr
}

// Recover processes a panic in progress and stops it. It must be deferred
// directly:
//
//	defer p.Recover()
//
// The stack runs from the panicking function to the goroutine's entry point.
// Without a panic Recover does nothing. Sentinels and panics that cannot be
// processed keep panicking.
func (p *Pipeline) Recover() {
	r := recover()
	if r == nil {
		return
	}
	p.RecoverValue(r, frame.Recovered(0, ""))
}

// RecoverValue is Recover for a value the caller recovered itself.
func (p *Pipeline) RecoverValue(r any, st frame.Stack) {
	perr := p.ProcessPanic(r, st)
	if perr == nil {
		return
	}
	if errors.Is(perr, diag.ErrNotInitialized) {
		panic(perr)
	}
	panic(r)
}

// Guard is Recover for the top of a goroutine: after reporting, the process
// exits with GuardExitCode. It must be deferred directly.
func (p *Pipeline) Guard() {
	r := recover()
	if r == nil {
		return
	}
	p.GuardValue(r, frame.Recovered(0, ""))
}

// GuardValue is Guard for a value the caller recovered itself. It never
// returns normally.
func (p *Pipeline) GuardValue(r any, st frame.Stack) {
	perr := p.ProcessPanic(r, st)
	if perr != nil && !errors.Is(perr, ErrNoStack) {
		panic(r)
	}
	p.terminate(p.Sink(), GuardExitCode)
}

// Guard reports a panic through the pipeline installed with CatchAll and
// exits with GuardExitCode. Without such a pipeline the panic continues.
// It must be deferred directly:
//
//	defer pipeline.Guard()
func Guard() {
	r := recover()
	if r == nil {
		return
	}
	GuardValue(r, frame.Recovered(0, ""))
}

// GuardValue is the package-level Guard for a value the caller recovered
// itself.
func GuardValue(r any, st frame.Stack) {
	p := hook.Load()
	if p == nil {
		panic(r)
	}
	p.GuardValue(r, st)
}

// Capture reports err using the stack recorded when it was created (see
// frame.WithStack). The caller of Capture is the catch site.
//
// Capture returns nil once err is reported. Errors without a recorded stack
// and sentinels are returned unchanged; before Setup the result wraps
// diag.ErrNotInitialized.
func (p *Pipeline) Capture(err error) error {
	return p.CaptureSkip(err, 1)
}

// CaptureSkip is Capture for helpers; skip counts the callers between the
// catch site and CaptureSkip.
func (p *Pipeline) CaptureSkip(err error, skip int) error {
	if err == nil {
		return nil
	}
	st := frame.FromError(err, frame.CallerFunction(skip+1))
	perr := p.Process(err, st, "")
	switch {
	case perr == nil:
		return nil
	case errors.Is(perr, ErrNoStack), errors.Is(perr, ErrPassThrough):
		return err
	default:
		return perr
	}
}
