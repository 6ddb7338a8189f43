// Package pipeline turns captured failures into reports.
//
// A Pipeline is configured once with Setup. Every failure handed to it then
// goes through the same steps: sentinel errors pass through untouched, the
// fail-fast chain may terminate the process, and otherwise the stack is
// walked, fingerprinted and the resulting diag.ErrorInfo is given to every
// responder in order. A responder that fails or panics is logged and
// skipped; the rest still run.
//
// Failures enter through Run, Recover, Guard or Capture.
package pipeline

import (
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"faultline/internal/diag"
	"faultline/internal/diagfmt"
	"faultline/internal/fingerprint"
	"faultline/internal/source"
	"faultline/internal/trace"
)

// Pipeline dispatches failures to the fail-fast and response chains.
type Pipeline struct {
	setupMu     sync.Mutex
	initialized atomic.Bool

	mu        sync.RWMutex
	cfg       Config
	engine    *fingerprint.Engine
	resolver  *source.Resolver
	sink      trace.Tracer
	positions bool
	failFast  []FailFast
	response  []Responder

	exit func(code int)
	now  func() time.Time
}

// New returns an uninitialized pipeline.
func New() *Pipeline {
	return &Pipeline{
		sink: trace.Nop,
		exit: os.Exit,
		now:  time.Now,
	}
}

// Setup configures the pipeline. It succeeds once; later calls return
// diag.ErrAlreadyInitialized. On error the pipeline stays uninitialized.
func (p *Pipeline) Setup(cfg Config) error {
	p.setupMu.Lock()
	defer p.setupMu.Unlock()

	if p.initialized.Load() {
		return diag.ErrAlreadyInitialized
	}

	cfg = cfg.withDefaults()
	engine, err := fingerprint.NewEngine(cfg.Hash, cfg.Strategy)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if _, err := diagfmt.ParseFormat(cfg.Format); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = trace.NewStreamTracer(os.Stderr, trace.LevelWarning, trace.FormatText)
	}

	response := slices.Clone(cfg.Response)
	if cfg.Response == nil {
		tb, err := cfg.Traceback(sink)
		if err != nil {
			return fmt.Errorf("setup: %w", err)
		}
		response = []Responder{tb}
	}

	p.mu.Lock()
	p.cfg = cfg
	p.engine = engine
	p.resolver = source.NewResolver(cfg.Loader, cfg.ContextLines)
	p.sink = sink
	p.positions = source.SupportsExactPositions()
	p.failFast = slices.Clone(cfg.FailFast)
	p.response = response
	p.mu.Unlock()

	p.initialized.Store(true)
	if cfg.CatchAll {
		hook.Store(p)
	}

	trace.Log(sink, trace.LevelInfo, "setup", "pipeline initialized",
		"name", cfg.Name, "version", cfg.Version, "hash", engine.HashName())
	return nil
}

// Initialized reports whether Setup has succeeded.
func (p *Pipeline) Initialized() bool {
	return p.initialized.Load()
}

// AddFailFast appends a check to the fail-fast chain.
func (p *Pipeline) AddFailFast(ff FailFast) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failFast = append(p.failFast, ff)
}

// AddResponse appends a responder to the response chain.
func (p *Pipeline) AddResponse(r Responder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = append(p.response, r)
}

// Sink returns the configured log sink.
func (p *Pipeline) Sink() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sink
}

// state is a consistent view of the configuration for one failure.
type state struct {
	cfg       Config
	engine    *fingerprint.Engine
	resolver  *source.Resolver
	sink      trace.Tracer
	positions bool
	failFast  []FailFast
	response  []Responder
}

func (p *Pipeline) snapshot() state {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return state{
		cfg:       p.cfg,
		engine:    p.engine,
		resolver:  p.resolver,
		sink:      p.sink,
		positions: p.positions,
		failFast:  slices.Clone(p.failFast),
		response:  slices.Clone(p.response),
	}
}
