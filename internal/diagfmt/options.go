package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"faultline/internal/diag"
	"faultline/internal/trace"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths under BaseDir relative to it, others as is.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses the path as reported.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Format selects the traceback layout.
type Format uint8

const (
	// FormatTerse prints one entry per frame with the active line only.
	FormatTerse Format = iota
	// FormatExtended prints the whole source window and the locals of every frame.
	FormatExtended
)

func (f Format) String() string {
	switch f {
	case FormatTerse:
		return "terse"
	case FormatExtended:
		return "extended"
	}
	return "unknown"
}

// ParseFormat converts a format name; "" selects terse.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "terse":
		return FormatTerse, nil
	case "extended", "extend":
		return FormatExtended, nil
	}
	return FormatTerse, fmt.Errorf("%w: %q (expected: terse|extended)", diag.ErrInvalidFormat, s)
}

const (
	DefaultPrimaryChar   = '~'
	DefaultSecondaryChar = '^'
)

// TracebackOpts configures the traceback renderer.
type TracebackOpts struct {
	Format        Format
	PrimaryChar   rune // заполнитель вокруг якоря, '~' по умолчанию
	SecondaryChar rune // якорь, '^' по умолчанию
	Color         bool
	PathMode      PathMode
	BaseDir       string
	// Reverse prints the origin first.
	Reverse bool
	// Message overrides the traceback header line.
	Message string
	// Sink receives one event per report; nil discards.
	Sink trace.Tracer
}

func (o TracebackOpts) withDefaults() TracebackOpts {
	if o.PrimaryChar == 0 {
		o.PrimaryChar = DefaultPrimaryChar
	}
	if o.SecondaryChar == 0 {
		o.SecondaryChar = DefaultSecondaryChar
	}
	if o.Message == "" {
		o.Message = "Traceback (most recent call last):"
		if o.Reverse {
			o.Message = "Traceback (most recent call first):"
		}
	}
	if o.Sink == nil {
		o.Sink = trace.Nop
	}
	return o
}

// JSONOpts configures JSON and MessagePack reports.
type JSONOpts struct {
	PathMode      PathMode
	BaseDir       string
	IncludeSource bool // добавить окно исходника
	IncludeLocals bool
	Indent        bool
}

// formatPath renders file according to mode.
func formatPath(file string, mode PathMode, base string) string {
	switch mode {
	case PathModeBasename:
		return filepath.Base(file)
	case PathModeRelative, PathModeAuto:
		if base == "" || !filepath.IsAbs(file) {
			return file
		}
		rel, err := filepath.Rel(base, file)
		if err != nil || (mode == PathModeAuto && strings.HasPrefix(rel, "..")) {
			return file
		}
		return rel
	default:
		return file
	}
}
