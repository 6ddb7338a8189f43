package diagfmt

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"faultline/internal/diag"
	"faultline/internal/source"
)

// caretParts is a caret line split into its indent and the three marker runs.
type caretParts struct {
	indent string
	before int // primary markers before the anchor
	anchor int // secondary markers
	after  int // primary markers after the anchor
}

// Caret draws the marker line for pos under line. stripped is the number of
// leading bytes removed from line before it was displayed; the caret is
// shifted left accordingly.
//
// Without an anchor the whole span uses secondary. With one, the anchor uses
// secondary and the rest of the span uses primary.
func Caret(line string, pos *source.Position, stripped int, primary, secondary rune) (string, error) {
	p, err := caretLayout(line, pos, stripped)
	if err != nil {
		return "", err
	}
	return p.indent +
		strings.Repeat(string(primary), p.before) +
		strings.Repeat(string(secondary), p.anchor) +
		strings.Repeat(string(primary), p.after), nil
}

func caretLayout(line string, pos *source.Position, stripped int) (caretParts, error) {
	if pos == nil || !pos.SingleLine() || pos.StartCol >= pos.EndCol {
		return caretParts{}, fmt.Errorf("%w: %v", diag.ErrInvalidPosition, pos)
	}
	stripped = max(0, min(stripped, pos.StartCol))

	var p caretParts
	p.indent = mirrorIndent(line, stripped, pos.StartCol)
	if a := pos.Anchor; a != nil && a.Left >= pos.StartCol && a.Right <= pos.EndCol && a.Left < a.Right {
		p.before = columns(line, pos.StartCol, a.Left)
		p.anchor = columns(line, a.Left, a.Right)
		p.after = columns(line, a.Right, pos.EndCol)
	} else {
		p.anchor = columns(line, pos.StartCol, pos.EndCol)
	}
	return p, nil
}

// mirrorIndent reproduces the layout of line[from:to]: tabs stay tabs, other
// runes become as many spaces as they occupy on screen.
func mirrorIndent(line string, from, to int) string {
	var sb strings.Builder
	seg := clip(line, from, to)
	for _, r := range seg {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	if extra := to - max(from, len(line)); extra > 0 {
		sb.WriteString(strings.Repeat(" ", extra))
	}
	return sb.String()
}

// columns is the display width of line[from:to]. Columns past the end of
// the line count one each.
func columns(line string, from, to int) int {
	w := runewidth.StringWidth(clip(line, from, to))
	if extra := to - max(from, len(line)); extra > 0 {
		w += extra
	}
	return w
}

func clip(line string, from, to int) string {
	from = max(0, min(from, len(line)))
	to = max(from, min(to, len(line)))
	return line[from:to]
}
