//go:build linux
// +build linux

package socket

import (
	"io"
	"net"
	"os"
	"syscall"
)

// SendFile transmits count bytes of file starting at offset using the
// sendfile(2) syscall: the kernel copies directly from the page cache to
// the socket buffer, skipping the userspace round trip io.Copy would need.
// It falls back to io.Copy if conn isn't backed by a raw fd or sendfile
// itself fails outright.
func SendFile(conn net.Conn, file *os.File, offset int64, count int64) (written int64, err error) {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}

	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}

	srcFd := int(file.Fd())

	var totalWritten int64
	var sendfileErr error

	ctrlErr := rawConn.Write(func(dstFd uintptr) bool {
		// totalWritten persists across re-invocations of this callback (the
		// netpoller calls it again once dstFd is writable), so resume from
		// wherever the last invocation left off rather than restarting from
		// offset/count.
		currentOffset := offset + totalWritten
		remaining := count - totalWritten

		for remaining > 0 {
			// A single sendfile call can't move more than 2GiB; chunk
			// anything larger.
			chunkSize := remaining
			if chunkSize > 1<<30 {
				chunkSize = 1 << 30
			}

			n, err := syscall.Sendfile(int(dstFd), srcFd, &currentOffset, int(chunkSize))
			if err != nil {
				if err == syscall.EINTR {
					continue
				}
				if err == syscall.EAGAIN {
					// The send buffer is full. Tell rawConn.Write we're not
					// done so the netpoller parks this goroutine until dstFd
					// is writable again and re-invokes us, instead of
					// busy-spinning on the same syscall.
					return false
				}
				sendfileErr = err
				return false
			}
			if n == 0 {
				break
			}

			totalWritten += int64(n)
			remaining -= int64(n)
		}

		return true
	})

	if ctrlErr != nil {
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}

	if sendfileErr != nil {
		if totalWritten > 0 {
			remaining := count - totalWritten
			if remaining > 0 {
				n, err := io.Copy(conn, io.NewSectionReader(file, offset+totalWritten, remaining))
				totalWritten += n
				if err != nil {
					return totalWritten, err
				}
			}
			return totalWritten, nil
		}
		return io.Copy(conn, io.NewSectionReader(file, offset, count))
	}

	return totalWritten, nil
}
