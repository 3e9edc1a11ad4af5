package proto

import "testing"

func TestRequestMethod(t *testing.T) {
	r := &Request{MethodID: MethodGET}
	if got := r.Method(); got != "GET" {
		t.Errorf("Method() = %q, want %q", got, "GET")
	}
}

func TestRequestKeepAliveHTTP11(t *testing.T) {
	cases := []struct {
		name string
		conn string
		want bool
	}{
		{"no connection header defaults to keep-alive", "", true},
		{"explicit keep-alive", "keep-alive", true},
		{"explicit close", "close", false},
	}
	for _, c := range cases {
		r := &Request{Version: http11Version, Header: make(Header)}
		if c.conn != "" {
			r.Header.Add("Connection", c.conn)
		}
		if got := r.KeepAlive(); got != c.want {
			t.Errorf("%s: KeepAlive() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestRequestKeepAliveHTTP10(t *testing.T) {
	cases := []struct {
		name string
		conn string
		want bool
	}{
		{"no connection header defaults to close", "", false},
		{"explicit keep-alive", "keep-alive", true},
		{"explicit close", "close", false},
	}
	for _, c := range cases {
		r := &Request{Version: http10Version, Header: make(Header)}
		if c.conn != "" {
			r.Header.Add("Connection", c.conn)
		}
		if got := r.KeepAlive(); got != c.want {
			t.Errorf("%s: KeepAlive() = %v, want %v", c.name, got, c.want)
		}
	}
}
