package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestServerStartServeShutdown(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("hi there"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Workers = 2
	cfg.DocRoot = dir
	cfg.UseSendfile = false

	s, err := New(cfg, newTestLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.CacheEntries() == 0 {
		t.Fatalf("expected cache to preload at least one entry")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	addr := s.workers[0].Addr()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(conn)
	status, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading status line: %v", err)
	}
	if status[:12] != "HTTP/1.1 200" {
		t.Fatalf("status = %q, want 200", status)
	}
	conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if s.RequestCount() == 0 {
		t.Errorf("expected at least one request to be recorded")
	}
}

func TestServerStartBindFailureCleansUpPartialWorkers(t *testing.T) {
	dir := t.TempDir()

	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer occupied.Close()

	cfg := DefaultConfig()
	cfg.Addr = occupied.Addr().String()
	cfg.Workers = 3
	cfg.DocRoot = dir

	s, err := New(cfg, newTestLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// SO_REUSEPORT lets multiple emberd workers share a port with each
	// other, but not with an unrelated listener that bound first without
	// it; Start must fail and leave nothing running.
	if err := s.Start(); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Shutdown(ctx)
		t.Fatalf("expected Start to fail when the address is already bound without SO_REUSEPORT")
	}
	if len(s.workers) != 0 {
		t.Errorf("expected no workers left registered after a failed Start, got %d", len(s.workers))
	}
}
