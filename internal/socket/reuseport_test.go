package socket

import (
	"net"
	"testing"
)

// TestListenReusePortTwoListenersSamePort exercises the property SO_REUSEPORT
// exists for (spec §2: each worker "bound with address/port reuse so the
// kernel distributes incoming connections"): two listeners can bind the
// same port simultaneously instead of the second failing with
// "address already in use".
func TestListenReusePortTwoListenersSamePort(t *testing.T) {
	l1, err := ListenReusePort("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("first ListenReusePort: %v", err)
	}
	defer l1.Close()

	addr := l1.Addr().String()

	l2, err := ListenReusePort("tcp", addr)
	if err != nil {
		t.Fatalf("second ListenReusePort on %s: %v", addr, err)
	}
	defer l2.Close()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Close()
}
