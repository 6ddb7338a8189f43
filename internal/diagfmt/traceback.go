package diagfmt

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"faultline/internal/diag"
	"faultline/internal/frame"
	"faultline/internal/source"
	"faultline/internal/trace"
)

// separator delimits frames in the extended format.
var separator = strings.Repeat("-", 79)

// localsIndent aligns continuation lines of long values with "%20s = ".
var localsIndent = strings.Repeat(" ", 23)

// Traceback renders reports as text and emits them to a log sink.
type Traceback struct {
	opts      TracebackOpts
	primary   *color.Color
	secondary *color.Color
}

// NewTraceback creates a renderer. Zero options give the terse format with
// '~' and '^' markers.
func NewTraceback(opts TracebackOpts) (*Traceback, error) {
	if opts.Format != FormatTerse && opts.Format != FormatExtended {
		return nil, fmt.Errorf("%w: %d", diag.ErrInvalidFormat, opts.Format)
	}
	t := &Traceback{opts: opts.withDefaults()}
	if opts.Color {
		t.primary = color.New(color.FgYellow)
		t.secondary = color.New(color.FgRed, color.Bold)
		t.primary.EnableColor()
		t.secondary.EnableColor()
	}
	return t, nil
}

// Respond implements diag.Responder: the report goes to the sink as one
// multi-line event at error level.
func (t *Traceback) Respond(info diag.ErrorInfo) error {
	trace.Log(t.opts.Sink, trace.LevelError, "traceback", t.Render(info))
	return nil
}

// Render returns the report as text without a trailing newline.
func (t *Traceback) Render(info diag.ErrorInfo) string {
	return strings.Join(t.Lines(info), "\n")
}

// Lines returns the report line by line.
func (t *Traceback) Lines(info diag.ErrorInfo) []string {
	if t.opts.Format == FormatExtended {
		return t.extended(info)
	}
	return t.terse(info)
}

func (t *Traceback) frames(info diag.ErrorInfo) []frame.Info {
	if !t.opts.Reverse {
		return info.Stack
	}
	out := make([]frame.Info, len(info.Stack))
	for i, f := range info.Stack {
		out[len(out)-1-i] = f
	}
	return out
}

func exceptionLine(info diag.ErrorInfo) string {
	return info.ExceptionType + ": " + info.Message()
}

func (t *Traceback) terse(info diag.ErrorInfo) []string {
	out := []string{
		"Error: " + info.Fingerprint.String(),
		t.opts.Message,
	}
	for _, f := range t.frames(info) {
		src := f.Source
		line, ok := src.Current()
		if !ok {
			out = append(out, fmt.Sprintf(`  File "<%s>", line ???, in %s`, source.Unknown, f.Name))
			continue
		}
		out = append(out, fmt.Sprintf(`  File "%s", line %d, in %s`, t.path(src.FileName), src.CurrentLine, f.Name))
		text := strings.TrimLeft(line, " \t")
		out = append(out, "    "+text)
		if c, ok := t.caret(line, src, len(line)-len(text)); ok {
			out = append(out, "    "+c)
		}
	}
	return append(out, exceptionLine(info))
}

func (t *Traceback) extended(info diag.ErrorInfo) []string {
	out := []string{
		"Error: " + info.Fingerprint.String(),
		exceptionLine(info),
		t.opts.Message,
	}
	for _, f := range t.frames(info) {
		out = append(out, separator)
		src := f.Source
		if _, ok := src.Current(); ok {
			out = append(out, fmt.Sprintf("File: %s (line %d)", t.path(src.FileName), src.CurrentLine))
			for i, line := range src.Lines {
				n := src.FirstLine + i
				sign := "   "
				if n == src.CurrentLine {
					sign = "==>"
				}
				out = append(out, fmt.Sprintf("%5d %s %s", n, sign, line))
				if n != src.CurrentLine {
					continue
				}
				if c, ok := t.caret(line, src, 0); ok {
					out = append(out, strings.Repeat(" ", 10)+c)
				}
			}
		} else {
			out = append(out, fmt.Sprintf("File: <%s> (in %s)", source.Unknown, f.Name))
		}
		if f.Locals.Len() > 0 {
			out = append(out, "Locals:")
			for name, value := range f.Locals.All() {
				out = append(out, localLines(name, value)...)
			}
		}
	}
	return append(out, separator)
}

func localLines(name string, value any) []string {
	lines := reprLines(value)
	if len(lines) == 1 {
		return []string{fmt.Sprintf("%20s = %s", name, lines[0])}
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, fmt.Sprintf("%20s = |", name))
	for _, l := range lines {
		out = append(out, localsIndent+l)
	}
	return out
}

// caret renders the marker line for the active line of src, if it has an
// exact single-line position on that line.
func (t *Traceback) caret(line string, src *source.Info, stripped int) (string, bool) {
	pos := src.Pos
	if pos == nil || !pos.SingleLine() || pos.StartLine != src.CurrentLine {
		return "", false
	}
	p, err := caretLayout(line, pos, stripped)
	if err != nil {
		return "", false
	}
	return p.indent +
		t.paint(t.primary, t.opts.PrimaryChar, p.before) +
		t.paint(t.secondary, t.opts.SecondaryChar, p.anchor) +
		t.paint(t.primary, t.opts.PrimaryChar, p.after), true
}

func (t *Traceback) paint(c *color.Color, r rune, n int) string {
	if n <= 0 {
		return ""
	}
	s := strings.Repeat(string(r), n)
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func (t *Traceback) path(file string) string {
	if file == source.Unknown {
		return file
	}
	return formatPath(file, t.opts.PathMode, t.opts.BaseDir)
}
