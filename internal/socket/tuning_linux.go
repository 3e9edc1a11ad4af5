//go:build linux
// +build linux

package socket

import (
	"syscall"
)

// Option numbers not exposed by the standard library's syscall package on
// every Go version/arch combination it supports.
const (
	tcpQuickAck     = 12
	tcpDeferAccept  = 9
	tcpFastOpen     = 23
	tcpUserTimeout  = 18
	tcpKeepIdle     = 4
	tcpKeepIntvl    = 5
	tcpKeepCnt      = 6
)

// applyPlatformOptions sets the Linux-only per-connection options. Called
// with rawConn's fd already under Control, so every SetsockoptInt here is
// best-effort: a kernel that rejects one of these (say, an old kernel
// without TCP_USER_TIMEOUT) shouldn't take the connection down with it.
func applyPlatformOptions(fd int, cfg *Config) {
	if cfg.QuickAck {
		// TCP_QUICKACK is cleared again after the next ACK the kernel
		// sends, so this is only a best-effort nudge for the first
		// response on the connection, not a persistent setting.
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpQuickAck, 1)
	}

	// Tear down half-dead connections faster than the default ~15 minutes.
	_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpUserTimeout, 10000)

	if cfg.KeepAlive {
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpKeepIdle, 60)
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpKeepIntvl, 10)
		_ = syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpKeepCnt, 3)
	}
}

// applyListenerOptions sets the Linux-only listener options: these must be
// applied before Accept is ever called, unlike the per-connection options
// above.
func applyListenerOptions(fd int, cfg *Config) error {
	var lastErr error

	if cfg.DeferAccept {
		// Withhold the accept() wakeup until data has actually arrived,
		// so a worker never allocates a connection for a socket that's
		// still mid-handshake.
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpDeferAccept, 5); err != nil {
			lastErr = err
		}
	}

	if cfg.FastOpen {
		if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, tcpFastOpen, 256); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
