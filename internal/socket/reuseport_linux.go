//go:build linux
// +build linux

package socket

import (
	"context"
	"net"
	"syscall"
)

// SO_REUSEPORT is not always exposed by the syscall package across Go
// versions; hardcoded here the same way tuning_linux.go hardcodes
// TCP_QUICKACK and TCP_DEFER_ACCEPT rather than pulling in
// golang.org/x/sys/unix for one constant.
const soReusePort = 0xf

// ListenReusePort binds a TCP listener with SO_REUSEPORT set before bind,
// so the kernel load-balances accepted connections across every worker's
// listener on the same address:port (spec §2: "its own listening socket
// bound with address/port reuse so the kernel distributes incoming
// connections").
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
