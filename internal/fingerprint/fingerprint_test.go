package fingerprint

import (
	"errors"
	"slices"
	"testing"

	"faultline/internal/frame"
	"faultline/internal/source"
)

func TestKnownVectors(t *testing.T) {
	tests := []struct {
		hash  string
		parts []string
		want  string
	}{
		{"sha1", []string{"test"}, "a94a8fe5-ccb1-5ba6-9c4c-0873d391e987"},
		{"sha1", []string{"test", "test2"}, "7408bb49-1e0d-5dc3-bac8-e503353e7940"},
		{"sha256", []string{"test"}, "9f86d081-884c-5d65-9a2f-eaa0c55ad015"},
		{"sha256", []string{"test", "test2"}, "98316636-bec9-5dbd-a3b4-60a9d08b8b16"},
		{"md5", []string{"test"}, "098f6bcd-4621-5373-8ade-4e832627b4f6"},
		{"md5", []string{"test", "test2"}, "8f2ab979-2f93-569a-9898-855f12414208"},
	}
	for _, tt := range tests {
		t.Run(tt.hash, func(t *testing.T) {
			e, err := NewEngine(tt.hash, Static(tt.parts))
			if err != nil {
				t.Fatal(err)
			}
			if got := e.Compute(Input{}).String(); got != tt.want {
				t.Fatalf("%s %q = %s, want %s", tt.hash, tt.parts, got, tt.want)
			}
		})
	}
}

func TestEveryHashProducesVersion5(t *testing.T) {
	for _, name := range HashNames() {
		h, err := LookupHash(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		id := Sum(h, []string{"a", "b"})
		if id.Version() != 5 {
			t.Errorf("%s: version %d", name, id.Version())
		}
		if id.Variant().String() != "RFC4122" {
			t.Errorf("%s: variant %s", name, id.Variant())
		}
		if id == Sum(h, []string{"ab"}) {
			t.Errorf("%s: separator ignored", name)
		}
	}
}

func TestHashSelection(t *testing.T) {
	names := HashNames()
	if !slices.IsSorted(names) || len(names) != 14 {
		t.Fatalf("unexpected hash names %v", names)
	}
	seen := map[ID]string{}
	for _, name := range names {
		h, _ := LookupHash(name)
		id := Sum(h, []string{"test"})
		if prev, ok := seen[id]; ok {
			t.Errorf("%s and %s collide", prev, name)
		}
		seen[id] = name
	}
}

func TestUnknownHash(t *testing.T) {
	if _, err := NewEngine("crc32", nil); !errors.Is(err, ErrUnknownHash) {
		t.Fatalf("expected ErrUnknownHash, got %v", err)
	}
	e, err := NewEngine("", nil)
	if err != nil || e.HashName() != DefaultHash {
		t.Fatalf("default engine: %v %v", e, err)
	}
}

func withSource(name, module, file string, line int) frame.Info {
	return frame.Info{
		Name:   name,
		Module: module,
		Source: &source.Info{FileName: file, FirstLine: line, CurrentLine: line, Lines: []string{""}},
	}
}

func TestDefaultParts(t *testing.T) {
	stack := []frame.Info{
		withSource("libFn", "example.com/lib/final", "lib/final/test.go", 17),
		{Name: "proxyFn", Module: "example.com/lib/proxy"},
		withSource("testFn", "example.com/app/tests", "tests/test.go", 10),
	}
	in := Input{
		Name:       "fp_test",
		Version:    "1.0.0",
		TypeName:   "*errorString",
		Stack:      stack,
		RootModule: "example.com/app",
	}
	want := []string{
		"fp_test", "1.0.0", "*errorString",
		"lib/final/test.go", "libFn", "17",
		"tests/test.go", "testFn", "10",
	}
	if got := (Default{}).Parts(in); !slices.Equal(got, want) {
		t.Fatalf("parts = %q, want %q", got, want)
	}

	in.RootModule = "example.com/lib/proxy"
	want = []string{
		"fp_test", "1.0.0", "*errorString",
		"lib/final/test.go", "libFn", "17",
		"proxyFn",
	}
	if got := (Default{}).Parts(in); !slices.Equal(got, want) {
		t.Fatalf("parts = %q, want %q", got, want)
	}

	in.Stack = nil
	if got := (Default{}).Parts(in); len(got) != 3 {
		t.Fatalf("empty stack parts = %q", got)
	}
}

func TestDeterminism(t *testing.T) {
	e, err := NewEngine("sha256", nil)
	if err != nil {
		t.Fatal(err)
	}
	in := Input{Name: "svc", Version: "1", TypeName: "*pkg.Err", Stack: []frame.Info{withSource("f", "m", "m/f.go", 3)}}
	first := e.Compute(in)
	for range 10 {
		if e.Compute(in) != first {
			t.Fatal("fingerprint is not stable")
		}
	}
	in.Stack[0].Source.CurrentLine = 4
	if e.Compute(in) == first {
		t.Fatal("line change must change the fingerprint")
	}
}

func TestInModule(t *testing.T) {
	tests := []struct {
		module, root string
		want         bool
	}{
		{"example.com/app", "example.com/app", true},
		{"example.com/app/store", "example.com/app", true},
		{"tests.test", "tests", true},
		{"example.com/application", "example.com/app", false},
		{"", "example.com/app", false},
		{"example.com/app", "", false},
	}
	for _, tt := range tests {
		if got := InModule(tt.module, tt.root); got != tt.want {
			t.Errorf("InModule(%q, %q) = %v", tt.module, tt.root, got)
		}
	}
}

func TestStrategyFunc(t *testing.T) {
	s := StrategyFunc(func(in Input) []string { return []string{in.TypeName} })
	e, _ := NewEngine("sha1", s)
	a := e.Compute(Input{TypeName: "A", Name: "x"})
	b := e.Compute(Input{TypeName: "A", Name: "y"})
	if a != b {
		t.Fatal("custom strategy ignored")
	}
}
