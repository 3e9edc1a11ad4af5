package proto

import "testing"

func TestHeaderAddGet(t *testing.T) {
	h := make(Header)
	h.Add("Content-Type", "text/html")

	if got := h.Get("Content-Type"); got != "text/html" {
		t.Errorf("Get(Content-Type) = %q, want %q", got, "text/html")
	}
	if got := h.Get("content-type"); got != "text/html" {
		t.Errorf("Get(content-type) = %q, want %q", got, "text/html")
	}
	if got := h.Get("CONTENT-TYPE"); got != "text/html" {
		t.Errorf("Get(CONTENT-TYPE) = %q, want %q", got, "text/html")
	}
}

func TestHeaderAddOverwrites(t *testing.T) {
	h := make(Header)
	h.Add("Connection", "keep-alive")
	h.Add("connection", "close")

	if got := h.Get("Connection"); got != "close" {
		t.Errorf("Get(Connection) = %q, want %q", got, "close")
	}
	if len(h) != 1 {
		t.Errorf("len(h) = %d, want 1", len(h))
	}
}

func TestHeaderGetMissing(t *testing.T) {
	h := make(Header)
	if got := h.Get("X-Missing"); got != "" {
		t.Errorf("Get(X-Missing) = %q, want empty", got)
	}
}

func TestLowerASCII(t *testing.T) {
	cases := map[string]string{
		"Content-Length": "content-length",
		"HOST":           "host",
		"already-lower":  "already-lower",
		"":               "",
	}
	for in, want := range cases {
		if got := lowerASCII(in); got != want {
			t.Errorf("lowerASCII(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimSpace(t *testing.T) {
	got := trimLeadingSpace(trimTrailingSpace([]byte("  keep-alive  ")))
	if string(got) != "keep-alive" {
		t.Errorf("trim = %q, want %q", got, "keep-alive")
	}

	got = trimLeadingSpace([]byte("\t value"))
	if string(got) != "value" {
		t.Errorf("trimLeadingSpace = %q, want %q", got, "value")
	}
}
