package trace

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Format represents the output format for events.
type Format uint8

const (
	FormatAuto   Format = iota // text, or NDJSON for *.ndjson / *.json outputs
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid log format: %q (expected: auto|text|ndjson)", s)
	}
}

// FormatEvent formats an event according to the specified format.
func FormatEvent(ev *Event, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(ev)
	default:
		return formatText(ev)
	}
}

// formatNDJSON formats an event as newline-delimited JSON.
func formatNDJSON(ev *Event) []byte {
	type jsonEvent struct {
		Time    string            `json:"time"`
		Seq     uint64            `json:"seq"`
		Level   string            `json:"level"`
		Kind    string            `json:"kind"`
		SpanID  uint64            `json:"span_id,omitempty"`
		Name    string            `json:"name"`
		Message string            `json:"message,omitempty"`
		Extra   map[string]string `json:"extra,omitempty"`
	}

	j := jsonEvent{
		Time:    ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:     ev.Seq,
		Level:   ev.Level.String(),
		Kind:    ev.Kind.String(),
		SpanID:  ev.SpanID,
		Name:    ev.Name,
		Message: ev.Message,
		Extra:   ev.Extra,
	}

	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}

// formatText formats an event as human-readable text.
// Format: [time] LEVEL →/← name {k=v}: message
// Multi-line messages start on their own line.
func formatText(ev *Event) []byte {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(ev.Time.Format("15:04:05.000"))
	sb.WriteString("] ")
	sb.WriteString(strings.ToUpper(ev.Level.String()))
	sb.WriteString(" ")

	// Direction arrow
	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("\u2192 ") // →
	case KindSpanEnd:
		sb.WriteString("\u2190 ") // ←
	}

	sb.WriteString(ev.Name)

	// Extra fields (compact format, stable order)
	if len(ev.Extra) > 0 {
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	if ev.Message != "" {
		if strings.Contains(ev.Message, "\n") {
			sb.WriteString("\n")
		} else {
			sb.WriteString(": ")
		}
		sb.WriteString(strings.TrimSuffix(ev.Message, "\n"))
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
