package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultRingSize is the ring capacity when none is configured.
const DefaultRingSize = 4096

// Tracer receives events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	// Flush writes buffered events out.
	Flush() error
	// Close flushes and releases the tracer's output.
	Close() error
	Level() Level
	// Enabled reports Level() > LevelOff.
	Enabled() bool
}

// gate is the level filter shared by the built-in tracers.
type gate struct {
	level Level
}

func (g gate) Level() Level        { return g.level }
func (g gate) Enabled() bool       { return g.level > LevelOff }
func (g gate) pass(ev *Event) bool { return g.level.ShouldEmit(ev.Level) }

// Nop drops every event.
var Nop Tracer = nop{}

type nop struct{}

func (nop) Emit(*Event)   {}
func (nop) Flush() error  { return nil }
func (nop) Close() error  { return nil }
func (nop) Level() Level  { return LevelOff }
func (nop) Enabled() bool { return false }

// StorageMode selects where New keeps events.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they arrive
	ModeRing                          // last N kept in memory
	ModeBoth                          // stream + ring
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m StorageMode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return "unknown"
}

// ParseMode converts a mode name.
func ParseMode(s string) (StorageMode, error) {
	s = strings.ToLower(s)
	for m, name := range modeNames {
		if name != "" && name == s {
			return StorageMode(m), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode // zero means stream
	Format     Format      // FormatAuto picks NDJSON for *.ndjson / *.json paths
	Output     io.Writer   // takes precedence over OutputPath
	OutputPath string      // file path; "", "-" and "stderr" mean stderr, "stdout" stdout
	RingSize   int         // DefaultRingSize when not positive
}

// New builds the tracer described by cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	switch cfg.Mode {
	case ModeRing:
		return NewRingTracer(cfg.RingSize, cfg.Level), nil
	case 0, ModeStream, ModeBoth:
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}

	w, err := cfg.writer()
	if err != nil {
		return nil, err
	}
	stream := NewStreamTracer(w, cfg.Level, cfg.format())
	if cfg.Mode != ModeBoth {
		return stream, nil
	}
	return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

func (cfg Config) format() Format {
	if cfg.Format != FormatAuto {
		return cfg.Format
	}
	if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".json") {
		return FormatNDJSON
	}
	return FormatText
}

func (cfg Config) writer() (io.Writer, error) {
	switch {
	case cfg.Output != nil:
		return cfg.Output, nil
	case cfg.OutputPath == "", cfg.OutputPath == "-", cfg.OutputPath == "stderr":
		return os.Stderr, nil
	case cfg.OutputPath == "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output: %w", err)
	}
	return f, nil
}
