//go:build !debug

package check

// Assert compiles to nothing in release builds.
func Assert(_ bool, _ string) {}

// Assertf compiles to nothing in release builds.
func Assertf(_ bool, _ string, _ ...any) {}
