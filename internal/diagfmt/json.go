package diagfmt

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"faultline/internal/diag"
	"faultline/internal/frame"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	StartLine int    `json:"start_line,omitempty"`
	StartCol  int    `json:"start_col,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	EndCol    int    `json:"end_col,omitempty"`
}

// VarJSON представляет локальную переменную кадра
type VarJSON struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FrameJSON представляет кадр стека в JSON формате
type FrameJSON struct {
	Name      string        `json:"name"`
	Module    string        `json:"module,omitempty"`
	Location  *LocationJSON `json:"location,omitempty"`
	FirstLine int           `json:"first_line,omitempty"`
	Source    []string      `json:"source,omitempty"`
	Locals    []VarJSON     `json:"locals,omitempty"`
}

// ReportJSON представляет корневую структуру отчёта
type ReportJSON struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Fingerprint string      `json:"fingerprint"`
	Type        string      `json:"type"`
	Message     string      `json:"message"`
	Timestamp   time.Time   `json:"timestamp"`
	Stack       []FrameJSON `json:"stack"`
}

// makeLocation создаёт LocationJSON из кадра; nil, если исходник неизвестен
func makeLocation(f frame.Info, opts JSONOpts) *LocationJSON {
	src := f.Source
	if src == nil {
		return nil
	}
	loc := &LocationJSON{
		File: formatPath(src.FileName, opts.PathMode, opts.BaseDir),
		Line: src.CurrentLine,
	}
	if pos := src.Pos; pos != nil {
		loc.StartLine = pos.StartLine
		loc.StartCol = pos.StartCol
		loc.EndLine = pos.EndLine
		loc.EndCol = pos.EndCol
	}
	return loc
}

// BuildReport формирует структуру отчёта без сериализации.
func BuildReport(info diag.ErrorInfo, opts JSONOpts) ReportJSON {
	stack := make([]FrameJSON, 0, len(info.Stack))
	for _, f := range info.Stack {
		fj := FrameJSON{
			Name:     f.Name,
			Module:   f.Module,
			Location: makeLocation(f, opts),
		}
		if opts.IncludeSource && f.Source != nil {
			fj.FirstLine = f.Source.FirstLine
			fj.Source = append([]string(nil), f.Source.Lines...)
		}
		if opts.IncludeLocals && f.Locals.Len() > 0 {
			fj.Locals = make([]VarJSON, 0, f.Locals.Len())
			for name, value := range f.Locals.All() {
				s, err := Repr(value)
				if err != nil {
					s = err.Error()
				}
				fj.Locals = append(fj.Locals, VarJSON{Name: name, Value: s})
			}
		}
		stack = append(stack, fj)
	}

	return ReportJSON{
		Name:        info.Name,
		Version:     info.Version,
		Fingerprint: info.Fingerprint.String(),
		Type:        info.ExceptionType,
		Message:     info.Message(),
		Timestamp:   info.Timestamp,
		Stack:       stack,
	}
}

// JSON пишет каждый отчёт отдельным JSON документом.
type JSON struct {
	mu   sync.Mutex
	w    io.Writer
	opts JSONOpts
}

// NewJSON creates a JSON responder writing to w.
func NewJSON(w io.Writer, opts JSONOpts) *JSON {
	return &JSON{w: w, opts: opts}
}

func (j *JSON) Respond(info diag.ErrorInfo) error {
	report := BuildReport(info, j.opts)

	j.mu.Lock()
	defer j.mu.Unlock()
	encoder := json.NewEncoder(j.w)
	if j.opts.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(report)
}
