package pipeline

import (
	"faultline/internal/diag"
	"faultline/internal/diagfmt"
	"faultline/internal/failfast"
	"faultline/internal/fingerprint"
	"faultline/internal/source"
	"faultline/internal/trace"
)

type (
	// FailFast decides whether a failure terminates the process.
	FailFast = failfast.FailFast
	// FailFastFunc adapts a function to FailFast.
	FailFastFunc = failfast.Func
	// Responder consumes reports.
	Responder = diag.Responder
	// ResponderFunc adapts a function to Responder.
	ResponderFunc = diag.ResponderFunc
)

const (
	// DefaultName is reported when no service name is configured.
	DefaultName = "unknown"
	// DefaultVersion is reported when no version is configured.
	DefaultVersion = "unknown"
	// DefaultFailFastCode is the exit status of a fail-fast termination.
	DefaultFailFastCode = 1
	// GuardExitCode is the exit status after Guard reported a panic.
	GuardExitCode = 2
)

// Config is the one-shot pipeline configuration.
type Config struct {
	Name       string // "unknown" when empty
	Version    string // "unknown" when empty
	Hash       string // fingerprint hash, "sha1" when empty
	RootModule string // package path of the application's own code

	FailFastCode int // 1 when zero
	FailFast     []FailFast
	// Response replaces the response chain. When nil, a traceback renderer
	// built from the options below is installed.
	Response []Responder

	// CatchAll installs the pipeline as the hook used by Guard.
	CatchAll bool

	ContextLines  int    // source lines around the active line, 7 when zero
	Format        string // traceback format: terse or extended
	PrimaryChar   rune
	SecondaryChar rune
	Color         bool

	Strategy fingerprint.Strategy // fingerprint.Default when nil
	Loader   source.Loader
	// Sink receives the pipeline's own log and the default traceback.
	// Warnings and errors go to stderr when nil.
	Sink trace.Tracer
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Hash == "" {
		c.Hash = fingerprint.DefaultHash
	}
	if c.FailFastCode == 0 {
		c.FailFastCode = DefaultFailFastCode
	}
	if c.ContextLines <= 0 {
		c.ContextLines = source.DefaultContextLines
	}
	if c.Strategy == nil {
		c.Strategy = fingerprint.Default{}
	}
	return c
}

// Traceback builds the renderer Setup installs when Response is nil. It
// lets callers wrap the default renderer, e.g. behind a DedupResponder.
func (c Config) Traceback(sink trace.Tracer) (*diagfmt.Traceback, error) {
	format, err := diagfmt.ParseFormat(c.Format)
	if err != nil {
		return nil, err
	}
	return diagfmt.NewTraceback(diagfmt.TracebackOpts{
		Format:        format,
		PrimaryChar:   c.PrimaryChar,
		SecondaryChar: c.SecondaryChar,
		Color:         c.Color,
		Sink:          sink,
	})
}
