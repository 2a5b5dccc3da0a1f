//go:build debug

package check

import "fmt"

// Assert panics when cond is false. Compiled in only under the debug tag.
func Assert(cond bool, msg string) {
	if !cond {
		panic("check failed: " + msg)
	}
}

// Assertf is Assert with a formatted message.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic("check failed: " + fmt.Sprintf(format, args...))
	}
}
