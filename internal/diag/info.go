package diag

import (
	"fmt"
	"time"

	"faultline/internal/fingerprint"
	"faultline/internal/frame"
)

// ErrorInfo is the report of one processed failure.
type ErrorInfo struct {
	Name          string
	Version       string
	Fingerprint   fingerprint.ID
	Stack         []frame.Info
	Exception     error
	ExceptionType string
	Timestamp     time.Time
}

// Message returns the exception text.
func (i ErrorInfo) Message() string {
	return Message(i.Exception)
}

// Message returns err's text. An Error method that panics yields a
// placeholder instead.
func Message(err error) (msg string) {
	if err == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			msg = (&ReprError{Err: fmt.Errorf("%v", r)}).Error()
		}
	}()
	return err.Error()
}

// Origin returns the frame the failure originated in.
func (i ErrorInfo) Origin() (frame.Info, bool) {
	if len(i.Stack) == 0 {
		return frame.Info{}, false
	}
	return i.Stack[len(i.Stack)-1], true
}

// CatchSite returns the frame the failure was caught in.
func (i ErrorInfo) CatchSite() (frame.Info, bool) {
	if len(i.Stack) == 0 {
		return frame.Info{}, false
	}
	return i.Stack[0], true
}
