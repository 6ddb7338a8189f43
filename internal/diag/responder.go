package diag

// Responder задаёт минимальный контракт получения отчётов от пайплайна.
// Реализации: Bag (копит в памяти), DedupResponder, форматтеры diagfmt.
type Responder interface {
	Respond(info ErrorInfo) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(info ErrorInfo) error

func (f ResponderFunc) Respond(info ErrorInfo) error {
	return f(info)
}

// Nop discards every report.
var Nop Responder = ResponderFunc(func(ErrorInfo) error { return nil })
