package diagfmt

import (
	"errors"
	"strings"
	"testing"

	"faultline/internal/diag"
	"faultline/internal/fingerprint"
	"faultline/internal/frame"
	"faultline/internal/source"
	"faultline/internal/trace"
)

type item struct {
	ID    int
	Label string
	Tags  []string
}

type brokenRepr struct{}

func (brokenRepr) GoString() string { panic("boom") }

func sampleInfo(t *testing.T) diag.ErrorInfo {
	t.Helper()
	h, err := fingerprint.LookupHash("sha1")
	if err != nil {
		t.Fatal(err)
	}
	return diag.ErrorInfo{
		Name:          "svc",
		Version:       "1.0.0",
		Fingerprint:   fingerprint.Sum(h, []string{"test"}),
		Exception:     errors.New("integer divide by zero"),
		ExceptionType: "*errors.errorString",
		Stack: []frame.Info{
			{
				Name:   "main",
				Module: "example.com/app",
				Source: &source.Info{
					FileName:    "/src/app/main.go",
					FirstLine:   10,
					CurrentLine: 12,
					Lines:       []string{"func main() {", "\t// run", "\tx := compute(y)", "}"},
					Pos: &source.Position{
						StartLine: 12, EndLine: 12, StartCol: 6, EndCol: 16,
						Anchor: &source.Anchor{Left: 6, Right: 13},
					},
				},
				Locals: frame.Vars{{Name: "y", Value: 3}, {Name: "name", Value: "svc"}},
			},
			{Name: "compute", Module: "example.com/app"},
			{
				Name:   "divide",
				Module: "example.com/app",
				Source: &source.Info{
					FileName:    "/src/app/math.go",
					FirstLine:   3,
					CurrentLine: 4,
					Lines:       []string{"func divide(a, b int) int {", "\treturn a / b", "}"},
				},
				Locals: frame.Vars{{Name: "b", Value: 0}},
			},
		},
	}
}

func TestTerse(t *testing.T) {
	tb, err := NewTraceback(TracebackOpts{})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"Error: a94a8fe5-ccb1-5ba6-9c4c-0873d391e987",
		"Traceback (most recent call last):",
		`  File "/src/app/main.go", line 12, in main`,
		"    x := compute(y)",
		"         ^^^^^^^~~~",
		`  File "<unknown>", line ???, in compute`,
		`  File "/src/app/math.go", line 4, in divide`,
		"    return a / b",
		"*errors.errorString: integer divide by zero",
	}, "\n")
	if got := tb.Render(sampleInfo(t)); got != want {
		t.Fatalf("terse mismatch:\n--- got\n%s\n--- want\n%s", got, want)
	}
}

func TestExtended(t *testing.T) {
	tb, err := NewTraceback(TracebackOpts{Format: FormatExtended})
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"Error: a94a8fe5-ccb1-5ba6-9c4c-0873d391e987",
		"*errors.errorString: integer divide by zero",
		"Traceback (most recent call last):",
		separator,
		"File: /src/app/main.go (line 12)",
		"   10     func main() {",
		"   11     \t// run",
		"   12 ==> \tx := compute(y)",
		"          \t     ^^^^^^^~~~",
		"   13     }",
		"Locals:",
		"                   y = 3",
		`                name = "svc"`,
		separator,
		"File: <unknown> (in compute)",
		separator,
		"File: /src/app/math.go (line 4)",
		"    3     func divide(a, b int) int {",
		"    4 ==> \treturn a / b",
		"    5     }",
		"Locals:",
		"                   b = 0",
		separator,
	}, "\n")
	if got := tb.Render(sampleInfo(t)); got != want {
		t.Fatalf("extended mismatch:\n--- got\n%s\n--- want\n%s", got, want)
	}
}

func TestReverseAndPaths(t *testing.T) {
	tb, err := NewTraceback(TracebackOpts{Reverse: true, PathMode: PathModeRelative, BaseDir: "/src"})
	if err != nil {
		t.Fatal(err)
	}
	lines := tb.Lines(sampleInfo(t))
	if lines[1] != "Traceback (most recent call first):" {
		t.Fatalf("header = %q", lines[1])
	}
	if lines[2] != `  File "app/math.go", line 4, in divide` {
		t.Fatalf("first frame = %q", lines[2])
	}
}

func TestLocalsRepr(t *testing.T) {
	info := sampleInfo(t)
	long := []item{
		{ID: 1, Label: "first item with a label", Tags: []string{"a", "b"}},
		{ID: 2, Label: "second item with a label", Tags: []string{"c"}},
	}
	info.Stack[0].Locals = frame.Vars{
		{Name: "before", Value: 1},
		{Name: "broken", Value: brokenRepr{}},
		{Name: "items", Value: long},
		{Name: "after", Value: "ok"},
	}
	tb, _ := NewTraceback(TracebackOpts{Format: FormatExtended})
	out := tb.Render(info)

	if !strings.Contains(out, "              broken = representation failed: boom\n") {
		t.Fatalf("repr failure not contained:\n%s", out)
	}
	if !strings.Contains(out, "              before = 1\n") || !strings.Contains(out, `               after = "ok"`) {
		t.Fatalf("neighbours of a failed repr must render:\n%s", out)
	}
	idx := strings.Index(out, "               items = |\n")
	if idx < 0 {
		t.Fatalf("long value not pretty-printed:\n%s", out)
	}
	rest := strings.Split(out[idx:], "\n")[1:]
	if !strings.HasPrefix(rest[0], localsIndent) || !strings.HasPrefix(rest[1], localsIndent) {
		t.Fatalf("continuation lines not indented: %q", rest[:2])
	}
}

func TestRepr(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "nil"},
		{42, "42"},
		{"svc", `"svc"`},
		{errors.New("x"), `*errors.errorString("x")`},
		{[]int{1, 2}, "[]int{1, 2}"},
	}
	for _, tt := range tests {
		got, err := Repr(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("Repr(%v) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	_, err := Repr(brokenRepr{})
	var re *diag.ReprError
	if !errors.As(err, &re) || err.Error() != "representation failed: boom" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTracebackRespond(t *testing.T) {
	ring := trace.NewRingTracer(4, trace.LevelError)
	tb, _ := NewTraceback(TracebackOpts{Sink: ring})
	info := sampleInfo(t)
	if err := tb.Respond(info); err != nil {
		t.Fatal(err)
	}
	snap := ring.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected one event, got %d", len(snap))
	}
	if snap[0].Level != trace.LevelError || snap[0].Message != tb.Render(info) {
		t.Fatalf("unexpected event %+v", snap[0])
	}
}

func TestColorCaret(t *testing.T) {
	tb, _ := NewTraceback(TracebackOpts{Color: true})
	lines := tb.Lines(sampleInfo(t))
	if !strings.Contains(lines[4], "\x1b[") {
		t.Fatalf("caret not coloured: %q", lines[4])
	}
	if strings.Contains(lines[3], "\x1b[") {
		t.Fatalf("source line must stay plain: %q", lines[3])
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTerse, "terse": FormatTerse, "extended": FormatExtended, "EXTEND": FormatExtended} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("verbose"); !errors.Is(err, diag.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, err := NewTraceback(TracebackOpts{Format: Format(7)}); !errors.Is(err, diag.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestFormatPath(t *testing.T) {
	tests := []struct {
		file string
		mode PathMode
		base string
		want string
	}{
		{"/src/app/main.go", PathModeAbsolute, "/src", "/src/app/main.go"},
		{"/src/app/main.go", PathModeBasename, "", "main.go"},
		{"/src/app/main.go", PathModeRelative, "/src", "app/main.go"},
		{"/src/app/main.go", PathModeRelative, "/other", "../src/app/main.go"},
		{"/src/app/main.go", PathModeAuto, "/other", "/src/app/main.go"},
		{"/src/app/main.go", PathModeAuto, "/src/app", "main.go"},
		{"example.com/app", PathModeAuto, "/src", "example.com/app"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.file, tt.mode, tt.base); got != tt.want {
			t.Errorf("formatPath(%q, %d, %q) = %q, want %q", tt.file, tt.mode, tt.base, got, tt.want)
		}
	}
}
