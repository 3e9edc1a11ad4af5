package proto

// Request is the result of parsing one HTTP/1.1 (or 1.0) request line plus
// headers. Body is a zero-copy view into whatever buffer Parse was called
// with (spec §9: "the read-path 'fast path then slow path' ...
// parameterizes the parse on an input view") and is only valid until that
// buffer is next mutated or reused; Path, Version and header values are
// copied into strings.
type Request struct {
	MethodID uint8
	Path     string
	Version  string // "HTTP/1.1" or "HTTP/1.0"
	Header   Header
	Body     []byte

	// ContentLength is the parsed content-length header value, or 0 if
	// absent (spec §4.2 step 4).
	ContentLength int64
}

// Method returns the canonical method string.
func (r *Request) Method() string {
	return MethodString(r.MethodID)
}

// KeepAlive reports whether the connection should stay open after this
// request per spec §4.4 dispatch: "HTTP/1.1 is keep-alive unless
// Connection: close; earlier versions require explicit Connection:
// keep-alive."
func (r *Request) KeepAlive() bool {
	conn := r.Header.Get(headerConnection)
	if r.Version == http11Version {
		return conn != connectionClose
	}
	return conn == connectionKeepAlive
}
