package config

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"faultline/internal/failfast"
	"faultline/internal/pipeline"
	"faultline/internal/trace"
)

// parseColor resolves auto|on|off; auto follows fatih/color's terminal
// detection.
func parseColor(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return !color.NoColor, nil
	case "on", "always", "true":
		return true, nil
	case "off", "never", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid color mode: %q (expected: auto|on|off)", s)
}

func (c Config) failFast() ([]pipeline.FailFast, error) {
	var out []pipeline.FailFast
	if len(c.FailFast.Types) > 0 {
		out = append(out, failfast.OnTypeName(c.FailFast.Types...))
	}
	if len(c.FailFast.Messages) > 0 {
		ff, err := failfast.OnMessage(c.FailFast.Messages...)
		if err != nil {
			return nil, err
		}
		out = append(out, ff)
	}
	return out, nil
}

// Pipeline validates c and converts it to a pipeline configuration logging
// to sink.
func (c Config) Pipeline(sink trace.Tracer) (pipeline.Config, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	ff, _ := c.failFast()
	useColor, _ := parseColor(c.Traceback.Color)
	return pipeline.Config{
		Name:          c.Service.Name,
		Version:       c.Service.Version,
		Hash:          c.Fingerprint.Hash,
		RootModule:    c.Service.RootModule,
		FailFastCode:  c.FailFast.Code,
		FailFast:      ff,
		CatchAll:      c.Service.CatchAll,
		ContextLines:  c.Traceback.ContextLines,
		Format:        c.Traceback.Format,
		PrimaryChar:   marker(c.Traceback.PrimaryChar),
		SecondaryChar: marker(c.Traceback.SecondaryChar),
		Color:         useColor,
		Sink:          sink,
	}, nil
}

// Trace converts the [log] section to a tracer configuration.
func (c Config) Trace() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Log.Level)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Log.Format)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Log.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Log.Output,
		RingSize:   c.Log.RingSize,
	}, nil
}
