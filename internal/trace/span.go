package trace

import (
	"maps"
	"time"
)

// Span times one operation at debug level. Below debug Begin returns an
// inert span whose methods do nothing.
type Span struct {
	t       Tracer
	id      uint64
	name    string
	started time.Time
	extra   map[string]string
}

// Begin emits the span's begin event.
func Begin(t Tracer, name string) *Span {
	if t == nil || !t.Level().ShouldEmit(LevelDebug) {
		return &Span{}
	}
	s := &Span{t: t, id: NextSpanID(), name: name, started: time.Now()}
	t.Emit(&Event{
		Time:   s.started,
		Level:  LevelDebug,
		Kind:   KindSpanBegin,
		SpanID: s.id,
		Name:   name,
	})
	return s
}

func (s *Span) active() bool {
	return s != nil && s.t != nil
}

// WithExtra attaches key=value to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if !s.active() {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string)
	}
	s.extra[key] = value
	return s
}

// End emits the end event with detail as its message and returns the
// span's duration, zero for inert spans.
func (s *Span) End(detail string) time.Duration {
	if !s.active() {
		return 0
	}
	dur := time.Since(s.started)
	extra := maps.Clone(s.extra)
	if extra == nil {
		extra = make(map[string]string, 1)
	}
	extra["duration"] = dur.String()
	s.t.Emit(&Event{
		Time:    time.Now(),
		Level:   LevelDebug,
		Kind:    KindSpanEnd,
		SpanID:  s.id,
		Name:    s.name,
		Message: detail,
		Extra:   extra,
	})
	return dur
}

func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}
