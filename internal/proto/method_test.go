package proto

import "testing"

func TestParseMethodID(t *testing.T) {
	cases := []struct {
		in   string
		want uint8
	}{
		{"GET", MethodGET},
		{"HEAD", MethodHEAD},
		{"POST", MethodPOST},
		{"PUT", MethodPUT},
		{"DELETE", MethodDELETE},
		{"PATCH", MethodUnknown},
		{"get", MethodUnknown},
		{"", MethodUnknown},
		{"GETX", MethodUnknown},
	}
	for _, c := range cases {
		if got := parseMethodID([]byte(c.in)); got != c.want {
			t.Errorf("parseMethodID(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestMethodString(t *testing.T) {
	cases := []struct {
		id   uint8
		want string
	}{
		{MethodGET, "GET"},
		{MethodHEAD, "HEAD"},
		{MethodPOST, "POST"},
		{MethodPUT, "PUT"},
		{MethodDELETE, "DELETE"},
		{MethodUnknown, ""},
	}
	for _, c := range cases {
		if got := MethodString(c.id); got != c.want {
			t.Errorf("MethodString(%d) = %q, want %q", c.id, got, c.want)
		}
	}
}
