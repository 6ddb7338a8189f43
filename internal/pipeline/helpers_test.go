package pipeline

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"faultline/internal/diag"
	"faultline/internal/frame"
	"faultline/internal/trace"
)

// exited is raised by the stubbed exit function.
type exited struct{ code int }

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, *diag.Bag, *trace.RingTracer) {
	t.Helper()
	p := New()
	p.exit = func(code int) { panic(exited{code}) }
	p.now = func() time.Time { return fixedTime }

	bag := diag.NewBag(0)
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	if cfg.Response == nil {
		cfg.Response = []Responder{bag}
	}
	if cfg.Sink == nil {
		cfg.Sink = ring
	}
	if err := p.Setup(cfg); err != nil {
		t.Fatal(err)
	}
	return p, bag, ring
}

// expectExit runs fn and returns the code passed to the exit function.
func expectExit(t *testing.T, fn func()) (code int) {
	t.Helper()
	defer func() {
		e, ok := recover().(exited)
		if !ok {
			t.Fatal("expected process exit")
		}
		code = e.code
	}()
	fn()
	return -1
}

// expectPanic runs fn and returns the value it panicked with.
func expectPanic(t *testing.T, fn func()) (value any) {
	t.Helper()
	defer func() {
		value = recover()
		if value == nil {
			t.Fatal("expected panic")
		}
	}()
	fn()
	return nil
}

func verdicts(calls *[]int, values ...bool) []FailFast {
	out := make([]FailFast, len(values))
	for i, v := range values {
		out[i] = FailFastFunc(func(reflect.Type, error, frame.Stack) bool {
			*calls = append(*calls, i)
			return v
		})
	}
	return out
}

//go:noinline
func explode(n int) {
	panic(frame.Bind(errors.New("boom"), "n", n))
}

//go:noinline
func failing() error {
	return frame.WithStack(errors.New("failed"))
}

//go:noinline
func failingWith(err error) error {
	return frame.WithStack(err)
}
