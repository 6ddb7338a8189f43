package diagfmt

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kr/pretty"

	"faultline/internal/diag"
)

// maxInlineRepr is the longest representation printed on the variable's line.
const maxInlineRepr = 72

// Repr returns the Go-syntax representation of v. Methods of v that panic
// are reported as *diag.ReprError.
func Repr(v any) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = "", &diag.ReprError{Err: panicErr(r)}
		}
	}()
	switch x := v.(type) {
	case nil:
		return "nil", nil
	case fmt.GoStringer:
		return x.GoString(), nil
	case error:
		return reflect.TypeOf(v).String() + "(" + strconv.Quote(x.Error()) + ")", nil
	}
	return fmt.Sprintf("%#v", v), nil
}

// reprLines renders v for the locals dump. Long values are pretty-printed
// over several lines when that is possible.
func reprLines(v any) []string {
	s, err := Repr(v)
	if err != nil {
		return []string{err.Error()}
	}
	if len(s) <= maxInlineRepr {
		return []string{s}
	}
	if long, ok := prettyRepr(v); ok {
		return strings.Split(long, "\n")
	}
	return []string{s}
}

func prettyRepr(v any) (s string, ok bool) {
	defer func() {
		if recover() != nil {
			s, ok = "", false
		}
	}()
	s = pretty.Sprint(v)
	return s, strings.Contains(s, "\n")
}

func panicErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
