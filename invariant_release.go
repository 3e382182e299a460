//go:build !debug

package barsched

// invariantFailed is a no-op in release builds; the violation has
// already been logged and passed to OnInternalError.
func invariantFailed(error) {}
