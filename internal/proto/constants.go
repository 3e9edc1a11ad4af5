// Package proto implements the HTTP/1.1 request parser and response
// encoding used by the static file server's per-worker event loop.
package proto

// HTTP method IDs, used for O(1) switching instead of string comparison
// once a method has been recognized by the parser.
const (
	MethodUnknown uint8 = iota
	MethodGET
	MethodHEAD
	MethodPOST
	MethodPUT
	MethodDELETE
)

const (
	http11Version = "HTTP/1.1"
	http10Version = "HTTP/1.0"
)

// Pre-compiled status lines. These are the only status codes this server
// ever emits.
var (
	statusLine200 = []byte("HTTP/1.1 200 OK\r\n")
	statusLine400 = []byte("HTTP/1.1 400 Bad Request\r\n")
	statusLine404 = []byte("HTTP/1.1 404 Not Found\r\n")
	statusLine405 = []byte("HTTP/1.1 405 Method Not Allowed\r\n")
)

// StatusLine200 is the pre-compiled "HTTP/1.1 200 OK" status line, exported
// for the response cache builder (spec §4.3) and the worker, which pass it
// to BuildResponse / BuildHeader for 200 responses built from on-disk files.
var StatusLine200 = statusLine200

var crlf = []byte("\r\n")

const (
	headerContentLength = "content-length"
	headerConnection    = "connection"

	connectionClose     = "close"
	connectionKeepAlive = "keep-alive"
)

// ServerHeaderLine is the fixed Server header emitted on every response.
// The original C++ reactor server (src/response_cache.h) bakes this in as
// a compile-time constant rather than negotiating it per request; this
// rewrite follows the same approach.
const ServerHeaderLine = "Server: emberd\r\n"

// MaxAccumulatedRequest is the point at which an unparseable accumulated
// buffer is rejected with 400 instead of waiting for more data (spec §4.2).
const MaxAccumulatedRequest = 10 << 20

// MaxCacheableBody is the largest file size the response cache will
// pre-materialize (spec §3).
const MaxCacheableBody = 1 << 20
