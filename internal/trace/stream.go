package trace

import (
	"errors"
	"io"
	"os"
	"sync"
)

// StreamTracer writes every event as soon as it is emitted.
type StreamTracer struct {
	gate
	format Format

	mu sync.Mutex
	w  io.Writer
}

// NewStreamTracer returns a tracer writing to w. FormatAuto writes text.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	if format == FormatAuto {
		format = FormatText
	}
	return &StreamTracer{gate: gate{level: level}, format: format, w: w}
}

// Emit writes ev. Write errors are dropped: a broken log output never
// fails the caller.
func (t *StreamTracer) Emit(ev *Event) {
	if !t.pass(ev) {
		return
	}
	ev.Seq = NextSeq()
	data := FormatEvent(ev, t.format)

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = t.w.Write(data)
}

// Flush flushes writers that buffer (bufio.Writer and alike).
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the output. Stdout and stderr stay open.
func (t *StreamTracer) Close() error {
	err := t.Flush()
	if t.w == os.Stderr || t.w == os.Stdout {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
