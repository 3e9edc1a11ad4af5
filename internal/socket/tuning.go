// Package socket applies kernel-level TCP tuning to the listener and
// accepted connections emberd's workers use, plus a sendfile(2) fast path
// for transmitting uncached files. Platform-specific option numbers live in
// tuning_linux.go / tuning_darwin.go / tuning_other.go.
package socket

import (
	"net"
	"syscall"
)

// Config holds the socket options a worker applies to a connection or
// listener. The zero value leaves every option named by a field at the OS
// default; Apply still sets the unconditional platform options
// (TCP_USER_TIMEOUT on Linux, SO_NOSIGPIPE on Darwin).
type Config struct {
	// NoDelay disables Nagle's algorithm (TCP_NODELAY). A static file
	// server answers every request immediately, so batching small writes
	// in the hope of filling a segment only adds latency.
	NoDelay bool

	// RecvBuffer and SendBuffer set SO_RCVBUF / SO_SNDBUF in bytes. Zero
	// leaves the kernel's autotuned default in place.
	RecvBuffer int
	SendBuffer int

	// QuickAck requests TCP_QUICKACK where the platform supports it.
	QuickAck bool

	// DeferAccept requests TCP_DEFER_ACCEPT (Linux only): the kernel
	// withholds the accept() wakeup until the first byte of the request
	// has actually arrived, so a worker never spins up a connection
	// object for a socket that's still in the handshake.
	DeferAccept bool

	// FastOpen enables TCP Fast Open on the listener, letting a repeat
	// client's SYN carry the first request bytes.
	FastOpen bool

	// KeepAlive enables SO_KEEPALIVE and, where supported, tunes the
	// probe interval.
	KeepAlive bool
}

// DefaultConfig is the fallback used when Apply or ApplyListener is given a
// nil Config.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:     true,
		RecvBuffer:  256 * 1024,
		SendBuffer:  256 * 1024,
		QuickAck:    true,
		DeferAccept: true,
		FastOpen:    true,
		KeepAlive:   true,
	}
}

// HighThroughputConfig favors larger socket buffers over ack latency: a
// static file server is bandwidth-bound, not ack-latency-bound, so wider
// buffers and delayed acks win over TCP_QUICKACK. The server passes it to
// ApplyListener, which uses only its DeferAccept and FastOpen fields; the
// buffer sizes and QuickAck take effect only through Apply.
func HighThroughputConfig() *Config {
	return &Config{
		NoDelay:     true,
		RecvBuffer:  1024 * 1024,
		SendBuffer:  1024 * 1024,
		QuickAck:    false,
		DeferAccept: true,
		FastOpen:    true,
		KeepAlive:   true,
	}
}

// Apply tunes an already-accepted connection. Only TCP_NODELAY failing is
// treated as an error; buffer sizing, keepalive, and the platform-specific
// options in applyPlatformOptions are best-effort and never fail the call.
func Apply(conn net.Conn, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}

	var nodelayErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		if cfg.NoDelay {
			if err := syscall.SetsockoptInt(int(fd), syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1); err != nil {
				nodelayErr = err
				return
			}
		}

		if cfg.RecvBuffer > 0 {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_RCVBUF, cfg.RecvBuffer)
		}
		if cfg.SendBuffer > 0 {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_SNDBUF, cfg.SendBuffer)
		}
		if cfg.KeepAlive {
			_ = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_KEEPALIVE, 1)
		}

		applyPlatformOptions(int(fd), cfg)
	})

	if ctrlErr != nil {
		return ctrlErr
	}
	return nodelayErr
}

// ApplyListener tunes a listening socket with the options that must be set
// before accept() — TCP_DEFER_ACCEPT and TCP_FASTOPEN — rather than per
// connection.
func ApplyListener(listener net.Listener, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tcpListener, ok := listener.(*net.TCPListener)
	if !ok {
		return nil
	}

	file, err := tcpListener.File()
	if err != nil {
		return err
	}
	defer file.Close()

	return applyListenerOptions(int(file.Fd()), cfg)
}
