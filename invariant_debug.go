//go:build debug

package barsched

// invariantFailed stops the program on a statistics invariant
// violation. Only built with -tags debug.
func invariantFailed(err error) {
	panic(err)
}
