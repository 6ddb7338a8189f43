package frame

import "errors"

// The helpers below are kept out of line so that their frames stay stable.

//go:noinline
func runCaught(fn func()) (st Stack, value any) {
	boundary := CallerFunction(0)
	defer func() {
		if value = recover(); value != nil {
			st = Recovered(0, boundary)
		}
	}()
	fn()
	return nil, nil
}

//go:noinline
func sampleEntry(n int) {
	sampleMiddle(n + 1)
}

//go:noinline
func sampleMiddle(n int) {
	sampleOops(n * 2)
}

//go:noinline
func sampleOops(n int) {
	panic(Bind(errors.New("oops"), "n", n, "label", "sample"))
}

//go:noinline
func sampleNew() error {
	return WithStack(errors.New("created"))
}

//go:noinline
func sampleWrap() error {
	return sampleNew()
}
