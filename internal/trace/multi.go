package trace

import "errors"

// MultiTracer forwards events to several tracers; each gets its own copy.
type MultiTracer struct {
	gate
	tracers []Tracer
}

// NewMultiTracer filters at level before forwarding; the targets apply
// their own levels too.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{gate: gate{level: level}, tracers: tracers}
}

func (t *MultiTracer) Emit(ev *Event) {
	if !t.pass(ev) {
		return
	}
	for _, tr := range t.tracers {
		cp := *ev
		tr.Emit(&cp)
	}
}

func (t *MultiTracer) Flush() error { return t.each(Tracer.Flush) }
func (t *MultiTracer) Close() error { return t.each(Tracer.Close) }

// each calls fn on every target and joins the errors.
func (t *MultiTracer) each(fn func(Tracer) error) error {
	var errs []error
	for _, tr := range t.tracers {
		errs = append(errs, fn(tr))
	}
	return errors.Join(errs...)
}

// Ring returns the first ring among the targets, or nil.
func (t *MultiTracer) Ring() *RingTracer {
	for _, tr := range t.tracers {
		if r, ok := tr.(*RingTracer); ok {
			return r
		}
	}
	return nil
}
