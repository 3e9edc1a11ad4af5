//go:build darwin
// +build darwin

package socket

import (
	"context"
	"net"
	"syscall"
)

// SO_REUSEPORT's value on Darwin, hardcoded for the same reason as
// tuning_darwin.go's SO_NOSIGPIPE/TCP_FASTOPEN constants.
const soReusePort = 0x200

// ListenReusePort binds a TCP listener with SO_REUSEPORT set before bind
// (spec §2's "own listening socket bound with address/port reuse").
func ListenReusePort(network, address string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, soReusePort, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.Listen(context.Background(), network, address)
}
