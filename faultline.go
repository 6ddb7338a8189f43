// Package faultline captures failures with their stack, source context and
// bound values, fingerprints them and hands the reports to responders.
//
// The package-level functions use a process-wide pipeline returned by
// Default. It must be configured once with Setup:
//
//	if err := faultline.Setup(faultline.Config{Name: "billing", CatchAll: true}); err != nil {
//		log.Fatal(err)
//	}
//	defer faultline.Guard()
//
// Errors created with New, Errorf or WithStack record the stack they were
// created on and can be reported later with Capture. With binds values to
// an error; they are shown next to the frame of the function that bound them.
package faultline

import (
	"errors"
	"fmt"

	"faultline/internal/diag"
	"faultline/internal/frame"
	"faultline/internal/pipeline"
	"faultline/internal/source"
)

type (
	Config       = pipeline.Config
	Pipeline     = pipeline.Pipeline
	ErrorInfo    = diag.ErrorInfo
	FrameInfo    = frame.Info
	SourceInfo   = source.Info
	CodePosition = source.Position

	FailFast      = pipeline.FailFast
	FailFastFunc  = pipeline.FailFastFunc
	Responder     = pipeline.Responder
	ResponderFunc = pipeline.ResponderFunc
)

var (
	ErrNotInitialized     = diag.ErrNotInitialized
	ErrAlreadyInitialized = diag.ErrAlreadyInitialized
	ErrUnknownHash        = diag.ErrUnknownHash
	ErrInvalidFormat      = diag.ErrInvalidFormat
)

var std = pipeline.New()

// Default returns the process-wide pipeline.
func Default() *Pipeline {
	return std
}

// NewPipeline returns an independent, uninitialized pipeline.
func NewPipeline() *Pipeline {
	return pipeline.New()
}

// Setup configures the default pipeline. It succeeds once.
func Setup(cfg Config) error {
	return std.Setup(cfg)
}

// AddFailFast appends a check to the default fail-fast chain.
func AddFailFast(ff FailFast) {
	std.AddFailFast(ff)
}

// AddResponse appends a responder to the default response chain.
func AddResponse(r Responder) {
	std.AddResponse(r)
}

// Run calls fn and reports a panic escaping from it. The caller of Run is
// the catch site. See Pipeline.Run.
func Run(fn func()) (err error) {
	boundary := frame.CallerFunction(0)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if perr := std.ProcessPanic(r, frame.Recovered(0, boundary)); perr != nil {
			err = perr
			return
		}
		err = diag.AsError(r)
	}()
	fn()
	return nil
}

// Recover reports a panic in progress and stops it. It must be deferred
// directly.
func Recover() {
	r := recover()
	if r == nil {
		return
	}
	std.RecoverValue(r, frame.Recovered(0, ""))
}

// Guard reports a panic through the pipeline set up with CatchAll and exits
// with status 2. It must be deferred directly, usually first in main.
func Guard() {
	r := recover()
	if r == nil {
		return
	}
	pipeline.GuardValue(r, frame.Recovered(0, ""))
}

// Capture reports err with the stack recorded on it. The caller of Capture
// is the catch site. See Pipeline.Capture.
func Capture(err error) error {
	return std.CaptureSkip(err, 1)
}

// New returns an error with message that records the caller's stack.
func New(message string) error {
	return frame.WithStackSkip(errors.New(message), 1)
}

// Errorf formats an error like fmt.Errorf and records the caller's stack.
func Errorf(format string, args ...any) error {
	return frame.WithStackSkip(fmt.Errorf(format, args...), 1)
}

// WithStack records the caller's stack on err unless it already carries one.
func WithStack(err error) error {
	return frame.WithStackSkip(err, 1)
}

// With binds name/value pairs to err for the calling function's frame.
func With(err error, kv ...any) error {
	return frame.BindSkip(err, 1, kv...)
}
