package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestBuildAndLookupSimpleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "A")

	c, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resp, ok := c.Lookup("/a.txt")
	if !ok {
		t.Fatal("Lookup(/a.txt) missed")
	}
	if !bytes.HasSuffix(resp, []byte("A")) {
		t.Errorf("response body mismatch: %q", resp)
	}
	if !bytes.Contains(resp, []byte("Content-Length: 1\r\n")) {
		t.Errorf("response missing Content-Length: %q", resp)
	}
	if !bytes.Contains(resp, []byte("Connection: keep-alive\r\n")) {
		t.Errorf("response missing keep-alive: %q", resp)
	}
}

func TestIndexHTMLAliasedAtDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "home")
	writeFile(t, root, "sub/index.html", "subhome")

	c, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, path := range []string{"/index.html", "/"} {
		resp, ok := c.Lookup(path)
		if !ok {
			t.Errorf("Lookup(%q) missed", path)
			continue
		}
		if !bytes.HasSuffix(resp, []byte("home")) {
			t.Errorf("Lookup(%q) body mismatch: %q", path, resp)
		}
	}

	for _, path := range []string{"/sub/index.html", "/sub/"} {
		resp, ok := c.Lookup(path)
		if !ok {
			t.Errorf("Lookup(%q) missed", path)
			continue
		}
		if !bytes.HasSuffix(resp, []byte("subhome")) {
			t.Errorf("Lookup(%q) body mismatch: %q", path, resp)
		}
	}
}

func TestEmptyPathNormalizesToIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "home")

	c, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resp, ok := c.Lookup("")
	if !ok {
		t.Fatal(`Lookup("") missed`)
	}
	if !bytes.HasSuffix(resp, []byte("home")) {
		t.Errorf("body mismatch: %q", resp)
	}
}

func TestFilesOverSizeLimitAreNotCached(t *testing.T) {
	root := t.TempDir()
	big := strings.Repeat("x", maxCacheableSize+1)
	writeFile(t, root, "big.bin", big)

	c, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, ok := c.Lookup("/big.bin"); ok {
		t.Error("Lookup(/big.bin) hit, want miss for an over-size file")
	}
}

func TestLookupMissReturnsFalse(t *testing.T) {
	root := t.TempDir()
	c, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := c.Lookup("/does-not-exist"); ok {
		t.Error("Lookup of a nonexistent path hit, want miss")
	}
}

func TestCacheHitBytesAreDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.html", "hello")

	c, err := Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r1, _ := c.Lookup("/")
	r2, _ := c.Lookup("/")
	if !bytes.Equal(r1, r2) {
		t.Error("repeated Lookup of the same path returned different bytes")
	}
}
