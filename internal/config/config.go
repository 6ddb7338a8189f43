// Package config loads faultline settings from TOML or YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"faultline/internal/diagfmt"
	"faultline/internal/fingerprint"
	"faultline/internal/source"
	"faultline/internal/trace"
)

// FileNames are the configuration files Find looks for, in order.
var FileNames = []string{"faultline.toml", "faultline.yaml", "faultline.yml"}

// ErrUnsupportedFile reports a configuration file with an unknown extension.
var ErrUnsupportedFile = errors.New("unsupported config file")

// Config mirrors the configuration file.
type Config struct {
	Service     Service     `toml:"service" yaml:"service"`
	Fingerprint Fingerprint `toml:"fingerprint" yaml:"fingerprint"`
	FailFast    FailFast    `toml:"failfast" yaml:"failfast"`
	Traceback   Traceback   `toml:"traceback" yaml:"traceback"`
	Log         Log         `toml:"log" yaml:"log"`
}

type Service struct {
	Name       string `toml:"name" yaml:"name"`
	Version    string `toml:"version" yaml:"version"`
	RootModule string `toml:"root_module" yaml:"root_module"`
	CatchAll   bool   `toml:"catch_all" yaml:"catch_all"`
}

type Fingerprint struct {
	Hash string `toml:"hash" yaml:"hash"`
}

// FailFast lists the failures that terminate the process.
type FailFast struct {
	Code     int      `toml:"code" yaml:"code"`
	Types    []string `toml:"types" yaml:"types"`       // dynamic type names, e.g. "*fs.PathError"
	Messages []string `toml:"messages" yaml:"messages"` // regexp2 patterns
}

type Traceback struct {
	Format        string `toml:"format" yaml:"format"`
	PrimaryChar   string `toml:"primary_char" yaml:"primary_char"`
	SecondaryChar string `toml:"secondary_char" yaml:"secondary_char"`
	ContextLines  int    `toml:"context_lines" yaml:"context_lines"`
	Color         string `toml:"color" yaml:"color"` // auto|on|off
}

type Log struct {
	Level    string `toml:"level" yaml:"level"`
	Format   string `toml:"format" yaml:"format"`
	Mode     string `toml:"mode" yaml:"mode"`
	Output   string `toml:"output" yaml:"output"` // "-" for stderr
	RingSize int    `toml:"ring_size" yaml:"ring_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Fingerprint: Fingerprint{Hash: fingerprint.DefaultHash},
		FailFast:    FailFast{Code: 1},
		Traceback: Traceback{
			Format:        "terse",
			PrimaryChar:   string(diagfmt.DefaultPrimaryChar),
			SecondaryChar: string(diagfmt.DefaultSecondaryChar),
			ContextLines:  source.DefaultContextLines,
			Color:         "auto",
		},
		Log: Log{
			Level:  "warning",
			Format: "text",
			Mode:   "stream",
			Output: "-",
		},
	}
}

// Find looks for a configuration file in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path over the defaults. The format follows the extension.
// Unknown keys are errors.
func Load(path string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer f.Close()
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		// пустой файл оставляет значения по умолчанию
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := fingerprint.LookupHash(c.Fingerprint.Hash); err != nil {
		errs = append(errs, fmt.Errorf("fingerprint.hash: %w", err))
	}
	if _, err := diagfmt.ParseFormat(c.Traceback.Format); err != nil {
		errs = append(errs, fmt.Errorf("traceback.format: %w", err))
	}
	if err := checkMarker(c.Traceback.PrimaryChar); err != nil {
		errs = append(errs, fmt.Errorf("traceback.primary_char: %w", err))
	}
	if err := checkMarker(c.Traceback.SecondaryChar); err != nil {
		errs = append(errs, fmt.Errorf("traceback.secondary_char: %w", err))
	}
	if c.Traceback.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("traceback.context_lines: must not be negative, got %d", c.Traceback.ContextLines))
	}
	if _, err := parseColor(c.Traceback.Color); err != nil {
		errs = append(errs, fmt.Errorf("traceback.color: %w", err))
	}
	if _, err := c.failFast(); err != nil {
		errs = append(errs, fmt.Errorf("failfast.messages: %w", err))
	}
	if _, err := trace.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := trace.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	if _, err := trace.ParseMode(c.Log.Mode); err != nil {
		errs = append(errs, fmt.Errorf("log.mode: %w", err))
	}
	return errors.Join(errs...)
}

func checkMarker(s string) error {
	if s == "" {
		return nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return fmt.Errorf("expected a single character, got %q", s)
	}
	return nil
}

func marker(s string) rune {
	if s == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
