package diag

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"faultline/internal/fingerprint"
	"faultline/internal/frame"
)

var (
	// ErrNotInitialized is returned when a failure is processed before Setup.
	ErrNotInitialized = errors.New("pipeline is not initialized")
	// ErrAlreadyInitialized is returned by a second Setup.
	ErrAlreadyInitialized = errors.New("pipeline is already initialized")
	// ErrUnknownHash reports an unsupported fingerprint hash name.
	ErrUnknownHash = fingerprint.ErrUnknownHash
	// ErrInvalidPosition reports a code position that cannot be drawn.
	ErrInvalidPosition = errors.New("invalid code position")
	// ErrInvalidFormat reports an unknown traceback format.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInterrupt signals a user interrupt. It is never reported.
	ErrInterrupt = errors.New("interrupted")
)

// PanicError wraps a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes panic values that are errors themselves.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// ExitError requests process termination with Code. It is never reported.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ReprError is the failure to render a value for display.
type ReprError struct {
	Err error
}

func (e *ReprError) Error() string {
	return "representation failed: " + e.Err.Error()
}

func (e *ReprError) Unwrap() error { return e.Err }

// AsError converts a recovered panic value into an error.
func AsError(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v}
}

// IsSentinel reports control-flow errors that must pass through unprocessed.
func IsSentinel(err error) bool {
	if err == nil {
		return false
	}
	var exit *ExitError
	switch {
	case errors.As(err, &exit):
		return true
	case errors.Is(err, ErrInterrupt), errors.Is(err, http.ErrAbortHandler):
		return true
	}
	return false
}

// Cause returns the error a failure is about: err without the stack and
// binding wrappers, and without a PanicError around an error value.
func Cause(err error) error {
	for {
		err = frame.Cause(err)
		pe, ok := err.(*PanicError)
		if !ok {
			return err
		}
		inner, ok := pe.Value.(error)
		if !ok {
			return err
		}
		err = inner
	}
}

// TypeName names the dynamic type of err's Cause, e.g. "*fs.PathError".
func TypeName(err error) string {
	err = Cause(err)
	if err == nil {
		return "nil"
	}
	return reflect.TypeOf(err).String()
}

// SimpleName drops the package qualifier from a type name:
// "*errors.errorString" becomes "*errorString". Pointer stars and type
// arguments are kept.
func SimpleName(typeName string) string {
	base := strings.TrimLeft(typeName, "*")
	stars := typeName[:len(typeName)-len(base)]
	head := base
	if i := strings.IndexByte(base, '['); i >= 0 {
		head = base[:i]
	}
	if i := strings.LastIndexByte(head, '.'); i >= 0 {
		base = base[i+1:]
	}
	return stars + base
}
