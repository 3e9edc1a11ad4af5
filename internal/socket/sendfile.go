//go:build !linux
// +build !linux

package socket

import (
	"io"
	"net"
	"os"
)

// SendFile transmits count bytes of file starting at offset. On platforms
// without a wired sendfile(2) syscall path it falls back to io.Copy so the
// worker's dispatch code stays platform-agnostic.
func SendFile(conn net.Conn, file *os.File, offset int64, count int64) (written int64, err error) {
	return io.Copy(conn, io.NewSectionReader(file, offset, count))
}
