package trace

import (
	"fmt"
	"sync/atomic"
	"time"
)

var (
	seq   atomic.Uint64
	spans atomic.Uint64
)

// NextSeq returns the next global event sequence number.
func NextSeq() uint64 {
	return seq.Add(1)
}

// NextSpanID returns a fresh span identifier.
func NextSpanID() uint64 {
	return spans.Add(1)
}

// Kind represents the type of event.
type Kind uint8

const (
	// KindLog is a plain log record.
	KindLog Kind = iota
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event represents a single log record.
type Event struct {
	Time    time.Time         // wall-clock timestamp
	Seq     uint64            // global sequence number (monotonic)
	Level   Level             // severity
	Kind    Kind              // record kind
	SpanID  uint64            // span identifier for span events
	Name    string            // e.g. "traceback", "respond", "failfast"
	Message string            // may span several lines
	Extra   map[string]string // extensible key-value pairs
}

// Log emits a record at lvl. kv alternates keys and values.
func Log(t Tracer, lvl Level, name, msg string, kv ...string) {
	if t == nil || !t.Level().ShouldEmit(lvl) {
		return
	}
	ev := &Event{
		Time:    time.Now(),
		Level:   lvl,
		Kind:    KindLog,
		Name:    name,
		Message: msg,
	}
	if len(kv) > 0 {
		ev.Extra = make(map[string]string, (len(kv)+1)/2)
		for i := 0; i < len(kv); i += 2 {
			v := ""
			if i+1 < len(kv) {
				v = kv[i+1]
			}
			ev.Extra[kv[i]] = v
		}
	}
	t.Emit(ev)
}

// Logf is Log with a formatted message.
func Logf(t Tracer, lvl Level, name, format string, args ...any) {
	if t == nil || !t.Level().ShouldEmit(lvl) {
		return
	}
	Log(t, lvl, name, fmt.Sprintf(format, args...))
}
