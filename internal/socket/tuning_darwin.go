//go:build darwin
// +build darwin

package socket

import (
	"syscall"
)

const (
	tcpFastOpen  = 0x105
	tcpKeepAlive = 0x10 // macOS's name for what Linux calls TCP_KEEPIDLE
	soNoSigPipe  = 0x1022
)

// applyPlatformOptions sets the Darwin-only per-connection options.
func applyPlatformOptions(fd int, cfg *Config) {
	// Linux gets the same behavior for free via MSG_NOSIGNAL on send();
	// Darwin needs it set on the socket instead.
	_ = syscall.SetsockoptInt(fd, syscall.SOL_SOCKET, soNoSigPipe, 1)

	if cfg.KeepAlive {
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpKeepAlive, 60)
	}
}

// applyListenerOptions sets the Darwin-only listener options.
func applyListenerOptions(fd int, cfg *Config) error {
	var lastErr error

	if cfg.FastOpen {
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpFastOpen, 256); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// Darwin has no TCP_DEFER_ACCEPT equivalent; cfg.DeferAccept is ignored here.
