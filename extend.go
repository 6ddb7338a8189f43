package faultline

import (
	"io"
	"reflect"

	"faultline/internal/diag"
	"faultline/internal/diagfmt"
	"faultline/internal/failfast"
	"faultline/internal/fingerprint"
	"faultline/internal/frame"
	"faultline/internal/source"
	"faultline/internal/trace"
)

// Stack and bound values, as seen by fail-fast checks and responders.
type (
	Stack = frame.Stack
	Var   = frame.Var
	Vars  = frame.Vars
)

// Fingerprinting. Config.Strategy accepts any Strategy; DefaultStrategy is
// used when it is nil.
type (
	Fingerprint      = fingerprint.ID
	FingerprintInput = fingerprint.Input
	Strategy         = fingerprint.Strategy
	StrategyFunc     = fingerprint.StrategyFunc
	DefaultStrategy  = fingerprint.Default
	StaticStrategy   = fingerprint.Static
)

// Logging sink. Config.Sink accepts any Tracer.
type (
	Tracer       = trace.Tracer
	Event        = trace.Event
	EventKind    = trace.Kind
	Level        = trace.Level
	RingTracer   = trace.RingTracer
	StreamTracer = trace.StreamTracer
	LogFormat    = trace.Format
)

const (
	LevelOff     = trace.LevelOff
	LevelError   = trace.LevelError
	LevelWarning = trace.LevelWarning
	LevelInfo    = trace.LevelInfo
	LevelDebug   = trace.LevelDebug
)

// NopTracer drops every event.
var NopTracer = trace.Nop

// NewStreamTracer writes events to w as text or NDJSON.
func NewStreamTracer(w io.Writer, level Level, format LogFormat) *StreamTracer {
	return trace.NewStreamTracer(w, level, format)
}

// NewRingTracer keeps the last capacity events in memory.
func NewRingTracer(capacity int, level Level) *RingTracer {
	return trace.NewRingTracer(capacity, level)
}

// Source loading. Config.Loader is consulted before the filesystem.
type (
	Loader     = source.Loader
	LoaderFunc = source.LoaderFunc
	MapLoader  = source.MapLoader
	FSLoader   = source.FSLoader
)

// Sentinels that pass through the pipeline unreported.
type (
	PanicError = diag.PanicError
	ExitError  = diag.ExitError
)

// ErrInterrupt marks a user interrupt.
var ErrInterrupt = diag.ErrInterrupt

// Built-in fail-fast checks.

// FailAlways terminates on every failure.
func FailAlways() FailFast { return failfast.Always() }

// FailNever never terminates.
func FailNever() FailFast { return failfast.Never() }

// FailOnType terminates when the failure, or an error it wraps, has one of types.
func FailOnType(types ...reflect.Type) FailFast { return failfast.OnType(types...) }

// FailOnTypeName is FailOnType by reflect type name, e.g. "*fs.PathError".
func FailOnTypeName(names ...string) FailFast { return failfast.OnTypeName(names...) }

// FailOnError terminates when the failure matches one of targets by errors.Is.
func FailOnError(targets ...error) FailFast { return failfast.OnError(targets...) }

// FailOnMessage terminates when the message matches one of the regexp2 patterns.
func FailOnMessage(patterns ...string) (FailFast, error) {
	return failfast.OnMessage(patterns...)
}

// FailOnAny terminates when one of checks does.
func FailOnAny(checks ...FailFast) FailFast { return failfast.Any(checks...) }

// Responders.
type (
	Traceback        = diagfmt.Traceback
	TracebackOptions = diagfmt.TracebackOpts
	TracebackFormat  = diagfmt.Format
	PathMode         = diagfmt.PathMode
	ReportOptions    = diagfmt.JSONOpts
	JSONResponder    = diagfmt.JSON
	MsgpackResponder = diagfmt.Msgpack
	Bag              = diag.Bag
	DedupResponder   = diag.DedupResponder
)

const (
	FormatTerse    = diagfmt.FormatTerse
	FormatExtended = diagfmt.FormatExtended

	PathModeAuto     = diagfmt.PathModeAuto
	PathModeAbsolute = diagfmt.PathModeAbsolute
	PathModeRelative = diagfmt.PathModeRelative
	PathModeBasename = diagfmt.PathModeBasename
)

// NewTraceback builds the text traceback renderer.
func NewTraceback(opts TracebackOptions) (*Traceback, error) {
	return diagfmt.NewTraceback(opts)
}

// NewJSON writes each report to w as one JSON document.
func NewJSON(w io.Writer, opts ReportOptions) *JSONResponder {
	return diagfmt.NewJSON(w, opts)
}

// NewMsgpack writes each report to w MessagePack-encoded.
func NewMsgpack(w io.Writer, opts ReportOptions) *MsgpackResponder {
	return diagfmt.NewMsgpack(w, opts)
}

// NewBag collects up to max reports in memory; max <= 0 means no limit.
func NewBag(max int) *Bag {
	return diag.NewBag(max)
}

// NewDedup forwards only the first report of each fingerprint to next.
func NewDedup(next Responder) *DedupResponder {
	return diag.NewDedupResponder(next)
}

// Report is the document written by the JSON and MessagePack responders.
type Report = diagfmt.ReportJSON

// DecodeReports reads the reports a MsgpackResponder wrote, until EOF.
func DecodeReports(r io.Reader) ([]Report, error) {
	return diagfmt.DecodeReports(r)
}
