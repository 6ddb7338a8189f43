package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"faultline/internal/diag"
	"faultline/internal/failfast"
	"faultline/internal/fingerprint"
	"faultline/internal/frame"
	"faultline/internal/source"
	"faultline/internal/trace"
)

func TestSetupOnce(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{Name: "svc"})
	if !p.Initialized() {
		t.Fatal("expected initialized pipeline")
	}
	if err := p.Setup(Config{Name: "other"}); !errors.Is(err, diag.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	if p.snapshot().cfg.Name != "svc" {
		t.Fatal("second Setup must not reconfigure")
	}
}

func TestSetupDefaults(t *testing.T) {
	p, _, _ := newTestPipeline(t, Config{Name: "svc"})
	cfg := p.snapshot().cfg
	if cfg.Version != DefaultVersion || cfg.Hash != "sha1" || cfg.FailFastCode != 1 || cfg.ContextLines != 7 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}

	anon, _, _ := newTestPipeline(t, Config{})
	if got := anon.snapshot().cfg.Name; got != DefaultName {
		t.Fatalf("Name = %q, want %q", got, DefaultName)
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown hash", Config{Hash: "crc32"}, diag.ErrUnknownHash},
		{"invalid format", Config{Format: "verbose"}, diag.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			if err := p.Setup(tt.cfg); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if p.Initialized() {
				t.Fatal("failed Setup must leave the pipeline uninitialized")
			}
			if err := p.Setup(Config{Sink: trace.Nop}); err != nil {
				t.Fatalf("Setup after failure: %v", err)
			}
		})
	}
}

func TestNotInitialized(t *testing.T) {
	p := New()

	err := p.Run(func() { explode(1) })
	if !errors.Is(err, diag.ErrNotInitialized) {
		t.Fatalf("Run: expected ErrNotInitialized, got %v", err)
	}

	if err := p.Capture(failing()); !errors.Is(err, diag.ErrNotInitialized) {
		t.Fatalf("Capture: expected ErrNotInitialized, got %v", err)
	}

	v := expectPanic(t, func() {
		defer p.Recover()
		explode(1)
	})
	if err, ok := v.(error); !ok || !errors.Is(err, diag.ErrNotInitialized) {
		t.Fatalf("Recover: expected ErrNotInitialized panic, got %v", v)
	}
}

func TestRunReport(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{
		Name:       "svc",
		Version:    "1.2.3",
		RootModule: "faultline/internal/pipeline",
	})

	err := p.Run(func() { explode(7) })
	if err == nil || err.Error() != "boom" {
		t.Fatalf("Run returned %v", err)
	}
	if bag.Len() != 1 {
		t.Fatalf("expected one report, got %d", bag.Len())
	}
	info := bag.Items()[0]

	if info.Name != "svc" || info.Version != "1.2.3" || !info.Timestamp.Equal(fixedTime) {
		t.Fatalf("unexpected header %+v", info)
	}
	if info.ExceptionType != "*errors.errorString" {
		t.Fatalf("unexpected type %q", info.ExceptionType)
	}

	var names []string
	for _, f := range info.Stack {
		names = append(names, f.Name)
	}
	want := []string{"TestRunReport", "TestRunReport.func1", "explode"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("stack = %v, want %v", names, want)
	}

	origin, _ := info.Origin()
	if n, ok := origin.Locals.Get("n"); !ok || n != 7 {
		t.Fatalf("origin locals = %+v", origin.Locals)
	}
	line, ok := origin.Source.Current()
	if !ok || !strings.Contains(line, "panic(") {
		t.Fatalf("origin line = %q", line)
	}
	if source.SupportsExactPositions() {
		pos := origin.Source.Pos
		if pos == nil || pos.Anchor == nil || line[pos.Anchor.Left:pos.Anchor.Right] != "panic" {
			t.Fatalf("origin position = %v", pos)
		}
	}

	engine, _ := fingerprint.NewEngine("sha1", nil)
	expect := engine.Compute(fingerprint.Input{
		Name:       "svc",
		Version:    "1.2.3",
		TypeName:   "*errorString",
		Stack:      info.Stack,
		RootModule: "faultline/internal/pipeline",
	})
	if info.Fingerprint != expect {
		t.Fatalf("fingerprint %s, want %s", info.Fingerprint, expect)
	}

	if p.Run(func() {}) != nil {
		t.Fatal("Run without panic must return nil")
	}
}

func TestFingerprintStableAcrossRuns(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{Name: "svc"})
	for range 3 {
		_ = p.Run(func() { explode(1) })
	}
	if ids := bag.Fingerprints(); len(ids) != 1 {
		t.Fatalf("same failure produced %d fingerprints", len(ids))
	}
}

func TestFailFastShortCircuit(t *testing.T) {
	var calls []int
	var responded bool
	p, _, ring := newTestPipeline(t, Config{
		FailFastCode: 3,
		FailFast:     verdicts(&calls, false, false, true, false),
		Response: []Responder{ResponderFunc(func(diag.ErrorInfo) error {
			responded = true
			return nil
		})},
	})

	code := expectExit(t, func() { _ = p.Run(func() { explode(1) }) })
	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if fmt.Sprint(calls) != "[0 1 2]" {
		t.Fatalf("fail-fast calls = %v", calls)
	}
	if responded {
		t.Fatal("responders must not run after fail-fast")
	}
	var logged bool
	for _, ev := range ring.Snapshot() {
		if ev.Name == "failfast" && ev.Level == trace.LevelError {
			logged = true
		}
	}
	if !logged {
		t.Fatal("fail-fast decision not logged")
	}
}

func TestFailFastPanicCountsAsFalse(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{
		FailFast: []FailFast{FailFastFunc(func(reflect.Type, error, frame.Stack) bool { panic("bad check") })},
	})
	_ = p.Run(func() { explode(1) })
	if bag.Len() != 1 {
		t.Fatal("failure must still be reported")
	}
}

func TestResponseIsolation(t *testing.T) {
	var calls []string
	record := func(name string) Responder {
		return ResponderFunc(func(diag.ErrorInfo) error {
			calls = append(calls, name)
			return nil
		})
	}
	p, _, ring := newTestPipeline(t, Config{
		Response: []Responder{
			record("r1"),
			ResponderFunc(func(diag.ErrorInfo) error {
				calls = append(calls, "r2")
				panic("responder exploded")
			}),
			ResponderFunc(func(diag.ErrorInfo) error {
				calls = append(calls, "r3")
				return errors.New("write failed")
			}),
			record("r4"),
		},
	})

	if err := p.Run(func() { explode(1) }); err == nil {
		t.Fatal("expected reported error")
	}
	if strings.Join(calls, ",") != "r1,r2,r3,r4" {
		t.Fatalf("calls = %v", calls)
	}

	var warnings []string
	for _, ev := range ring.Snapshot() {
		if ev.Level == trace.LevelWarning && ev.Name == "respond" {
			warnings = append(warnings, ev.Message)
		}
	}
	if strings.Join(warnings, ",") != "responder exploded,write failed" {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestSentinelPassthrough(t *testing.T) {
	var checked bool
	p, bag, _ := newTestPipeline(t, Config{
		FailFast: []FailFast{FailFastFunc(func(reflect.Type, error, frame.Stack) bool {
			checked = true
			return true
		})},
	})

	for _, sentinel := range []error{&diag.ExitError{Code: 4}, diag.ErrInterrupt, http.ErrAbortHandler} {
		v := expectPanic(t, func() { _ = p.Run(func() { panic(sentinel) }) })
		if v != sentinel {
			t.Fatalf("re-raised %v, want %v", v, sentinel)
		}

		err := frame.WithStack(sentinel)
		if got := p.Capture(err); got != err {
			t.Fatalf("Capture returned %v", got)
		}
	}
	if checked || bag.Len() != 0 {
		t.Fatal("sentinels must not be evaluated or reported")
	}
}

func TestCapture(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{})

	if p.Capture(nil) != nil {
		t.Fatal("Capture(nil) must be a no-op")
	}
	plain := errors.New("plain")
	if p.Capture(plain) != plain {
		t.Fatal("errors without stack must be returned unchanged")
	}
	if bag.Len() != 0 {
		t.Fatal("nothing must be reported yet")
	}

	if err := p.Capture(fmt.Errorf("wrapped: %w", failing())); err != nil {
		t.Fatalf("Capture returned %v", err)
	}
	if bag.Len() != 1 {
		t.Fatalf("expected one report, got %d", bag.Len())
	}
	info := bag.Items()[0]
	if len(info.Stack) != 2 || info.Stack[0].Name != "TestCapture" || info.Stack[1].Name != "failing" {
		t.Fatalf("unexpected stack %+v", info.Stack)
	}
	// fmt wrappers belong to the caller and name the type
	if info.Message() != "wrapped: failed" || info.ExceptionType != "*fmt.wrapError" {
		t.Fatalf("unexpected exception %q %q", info.ExceptionType, info.Message())
	}

	if err := p.Capture(failing()); err != nil {
		t.Fatalf("Capture returned %v", err)
	}
	if got := bag.Items()[1].ExceptionType; got != "*errors.errorString" {
		t.Fatalf("stack wrapper leaked into type %q", got)
	}
}

type quotaError struct{ limit int }

func (e *quotaError) Error() string { return fmt.Sprintf("quota %d exceeded", e.limit) }

func TestFingerprintTypePart(t *testing.T) {
	var parts [][]string
	record := fingerprint.StrategyFunc(func(in fingerprint.Input) []string {
		got := fingerprint.Default{}.Parts(in)
		parts = append(parts, got)
		return got
	})
	p, bag, _ := newTestPipeline(t, Config{Strategy: record})

	for _, e := range []error{errors.New("quota"), &quotaError{limit: 3}} {
		if err := p.Capture(failingWith(e)); err != nil {
			t.Fatalf("Capture returned %v", err)
		}
	}
	if len(parts) != 2 {
		t.Fatalf("expected two computations, got %d", len(parts))
	}
	want := [][]string{
		{DefaultName, DefaultVersion, "*errorString"},
		{DefaultName, DefaultVersion, "*quotaError"},
	}
	for i := range want {
		if strings.Join(parts[i][:3], ",") != strings.Join(want[i], ",") {
			t.Errorf("parts[%d] = %q, want %q", i, parts[i][:3], want[i])
		}
	}
	if strings.Join(parts[0][3:], ",") != strings.Join(parts[1][3:], ",") {
		t.Fatalf("frame parts differ: %q vs %q", parts[0][3:], parts[1][3:])
	}
	items := bag.Items()
	if items[0].Fingerprint == items[1].Fingerprint {
		t.Fatal("different error types must fingerprint differently")
	}
	if got := items[1].ExceptionType; got != "*pipeline.quotaError" {
		t.Fatalf("ExceptionType = %q", got)
	}
}

func TestRecover(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{})

	func() {
		defer p.Recover()
		explode(2)
	}()
	func() {
		defer p.Recover()
	}()

	if bag.Len() != 1 {
		t.Fatalf("expected one report, got %d", bag.Len())
	}
	info := bag.Items()[0]
	if f, _ := info.Origin(); f.Name != "explode" {
		t.Fatalf("origin = %s", f.Name)
	}
	if f, _ := info.CatchSite(); f.Name != "TestRecover" {
		t.Fatalf("catch site = %s", f.Name)
	}
}

func TestGuard(t *testing.T) {
	hook.Store(nil)
	v := expectPanic(t, func() {
		defer Guard()
		panic("unhooked")
	})
	if v != "unhooked" {
		t.Fatalf("Guard without hook must re-panic, got %v", v)
	}

	p, bag, _ := newTestPipeline(t, Config{CatchAll: true})
	defer hook.Store(nil)
	if Hooked() != p {
		t.Fatal("CatchAll must install the hook")
	}

	code := expectExit(t, func() {
		defer Guard()
		explode(3)
	})
	if code != GuardExitCode || bag.Len() != 1 {
		t.Fatalf("code=%d reports=%d", code, bag.Len())
	}

	code = expectExit(t, func() {
		defer p.Guard()
		explode(4)
	})
	if code != GuardExitCode || bag.Len() != 2 {
		t.Fatalf("code=%d reports=%d", code, bag.Len())
	}
}

func TestAddToChains(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{})
	extra := diag.NewBag(0)
	p.AddResponse(extra)
	_ = p.Run(func() { explode(1) })
	if bag.Len() != 1 || extra.Len() != 1 {
		t.Fatalf("bag=%d extra=%d", bag.Len(), extra.Len())
	}

	p.AddFailFast(failfast.Always())
	if code := expectExit(t, func() { _ = p.Run(func() { explode(1) }) }); code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if bag.Len() != 1 {
		t.Fatal("fail-fast must bypass responders")
	}
}

func TestDefaultTraceback(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelWarning)
	p := New()
	if err := p.Setup(Config{Name: "svc", Sink: ring, Format: "extended"}); err != nil {
		t.Fatal(err)
	}
	_ = p.Run(func() { explode(5) })

	var msg string
	for _, ev := range ring.Snapshot() {
		if ev.Name == "traceback" {
			msg = ev.Message
		}
	}
	if !strings.HasPrefix(msg, "Error: ") || !strings.Contains(msg, "Locals:") || !strings.Contains(msg, "                   n = 5") {
		t.Fatalf("unexpected traceback:\n%s", msg)
	}
}

func TestConfigTraceback(t *testing.T) {
	if _, err := (Config{Format: "verbose"}).Traceback(trace.Nop); err == nil {
		t.Fatal("expected invalid format error")
	}

	// the default renderer wrapped by the caller
	ring := trace.NewRingTracer(16, trace.LevelWarning)
	cfg := Config{Name: "svc", Sink: ring, Format: "terse"}
	tb, err := cfg.Traceback(ring)
	if err != nil {
		t.Fatal(err)
	}
	dedup := diag.NewDedupResponder(tb)
	cfg.Response = []Responder{dedup}
	p := New()
	if err := p.Setup(cfg); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		_ = p.Run(func() { explode(7) })
	}
	if n := len(ring.Find("traceback")); n != 1 {
		t.Fatalf("expected one rendered traceback, got %d", n)
	}
}

func TestGroup(t *testing.T) {
	p, bag, _ := newTestPipeline(t, Config{})
	g, ctx := p.Group(context.Background())
	g.SetLimit(2)
	g.Go(func() error { return nil })
	g.Go(func() error {
		explode(6)
		return nil
	})
	err := g.Wait()

	var pe *diag.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if pe.Unwrap() == nil || pe.Unwrap().Error() != "boom" {
		t.Fatalf("panic value not preserved: %v", pe.Value)
	}
	if ctx.Err() == nil {
		t.Fatal("group context must be cancelled")
	}
	if bag.Len() != 1 {
		t.Fatalf("expected one report, got %d", bag.Len())
	}
	if f, _ := bag.Items()[0].Origin(); f.Name != "explode" {
		t.Fatalf("origin = %s", f.Name)
	}
}
