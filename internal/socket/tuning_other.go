//go:build !linux && !darwin
// +build !linux,!darwin

package socket

// applyPlatformOptions is a no-op: platforms other than Linux and Darwin
// get no extra per-connection tuning beyond the cross-platform options in
// tuning.go.
func applyPlatformOptions(fd int, cfg *Config) {}

// applyListenerOptions is a no-op for the same reason.
func applyListenerOptions(fd int, cfg *Config) error {
	return nil
}
