//go:build !linux && !darwin
// +build !linux,!darwin

package socket

import (
	"context"
	"net"
)

// ListenReusePort falls back to a plain listener on platforms without a
// known SO_REUSEPORT constant; every worker would then share one listener
// via a connection-distributing wrapper rather than true kernel-side
// port sharing. That wrapper isn't provided here since the target
// deployment platforms are Linux and Darwin (see tuning_other.go for the
// same fallback pattern on the per-connection tuning side).
func ListenReusePort(network, address string) (net.Listener, error) {
	return (&net.ListenConfig{}).Listen(context.Background(), network, address)
}
