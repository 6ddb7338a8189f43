package source

import "fmt"

// Valid reports whether the position satisfies its ordering invariant.
func (p Position) Valid() bool {
	if p.StartLine <= 0 || p.StartLine > p.EndLine {
		return false
	}
	if p.StartCol < 0 || p.EndCol < 0 {
		return false
	}
	if p.StartLine == p.EndLine && p.StartCol >= p.EndCol {
		return false
	}
	if p.Anchor != nil && (p.Anchor.Left < 0 || p.Anchor.Left > p.Anchor.Right) {
		return false
	}
	return true
}

// SingleLine reports whether the span starts and ends on the same line.
func (p Position) SingleLine() bool {
	return p.StartLine == p.EndLine
}

func (p Position) String() string {
	s := fmt.Sprintf("%d:%d-%d:%d", p.StartLine, p.StartCol, p.EndLine, p.EndCol)
	if p.Anchor != nil {
		s += fmt.Sprintf("[%d,%d]", p.Anchor.Left, p.Anchor.Right)
	}
	return s
}

// LastLine returns the number of the last line in the window,
// or FirstLine-1 when the window is empty.
func (i *Info) LastLine() int {
	return i.FirstLine + len(i.Lines) - 1
}

// Line returns the line with the absolute number n.
func (i *Info) Line(n int) (string, bool) {
	if i == nil {
		return "", false
	}
	idx := n - i.FirstLine
	if idx < 0 || idx >= len(i.Lines) {
		return "", false
	}
	return i.Lines[idx], true
}

// Current returns the active execution line.
func (i *Info) Current() (string, bool) {
	if i == nil {
		return "", false
	}
	return i.Line(i.CurrentLine)
}
