package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the most recent events in memory. Tests and the demo
// command read reports back from it.
type RingTracer struct {
	gate

	mu    sync.RWMutex
	buf   []Event
	start int // oldest event
	n     int
}

// NewRingTracer keeps up to capacity events, DefaultRingSize when not positive.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = DefaultRingSize
	}
	return &RingTracer{gate: gate{level: level}, buf: make([]Event, capacity)}
}

// Emit stores a copy of ev, evicting the oldest event when full.
func (t *RingTracer) Emit(ev *Event) {
	if !t.pass(ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	stored := *ev
	stored.Seq = NextSeq()
	if t.n < len(t.buf) {
		t.buf[(t.start+t.n)%len(t.buf)] = stored
		t.n++
		return
	}
	t.buf[t.start] = stored
	t.start = (t.start + 1) % len(t.buf)
}

// Len returns the number of stored events.
func (t *RingTracer) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.n
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Event, t.n)
	for i := range out {
		out[i] = t.buf[(t.start+i)%len(t.buf)]
	}
	return out
}

// Find returns the stored events with the given name, oldest first.
func (t *RingTracer) Find(name string) []Event {
	var out []Event
	for _, ev := range t.Snapshot() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }
