package trace

import (
	"fmt"
	"strings"
)

// Level controls logging verbosity. Higher levels include the lower ones.
type Level uint8

const (
	LevelOff     Level = iota // no logging
	LevelError                // reports and fatal decisions
	LevelWarning              // contained failures
	LevelInfo                 // lifecycle events
	LevelDebug                // everything
)

var levelNames = [...]string{
	LevelOff:     "off",
	LevelError:   "error",
	LevelWarning: "warning",
	LevelInfo:    "info",
	LevelDebug:   "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a level name, case-insensitively. "warn" is accepted
// as a synonym for "warning".
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warn" {
		return LevelWarning, nil
	}
	for l, name := range levelNames {
		if name == s {
			return Level(l), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid log level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether an event at ev passes a tracer at level l.
func (l Level) ShouldEmit(ev Level) bool {
	return ev != LevelOff && ev <= l
}
