//go:build !linux

package barsched

// PinToCPU is a no-op outside Linux.
func PinToCPU(_ int) error { return nil }
