package proto

import (
	"path/filepath"
	"strconv"
	"strings"
)

// contentTypes maps file extensions to MIME types for the response cache
// builder (spec §4.3). Anything not listed falls back to
// application/octet-stream, matching the original reactor server's
// response_cache.h lookup table.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".htm":  "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".xml":  "application/xml; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".woff": "font/woff",
	".woff2": "font/woff2",
	".pdf":  "application/pdf",
}

const defaultContentType = "application/octet-stream"

// DetectContentType guesses a MIME type from a file's extension.
func DetectContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}

// BuildHeader assembles the status line plus headers (Server, Content-Type,
// Content-Length, Connection) and the blank line that separates them from
// the body, without the body itself. BuildResponse uses it for the common
// case of a body already in hand; the sendfile dispatch path (spec §4.4
// Dispatch: "set a sendfile slot ... with a separately built header write
// buffer") uses it directly, since the body is never copied into a Go
// buffer at all.
func BuildHeader(statusLine []byte, contentType string, contentLength int64, keepAlive bool) []byte {
	conn := connectionKeepAlive
	if !keepAlive {
		conn = connectionClose
	}

	buf := make([]byte, 0, len(statusLine)+len(ServerHeaderLine)+128)
	buf = append(buf, statusLine...)
	buf = append(buf, ServerHeaderLine...)
	buf = append(buf, "Content-Type: "...)
	buf = append(buf, contentType...)
	buf = append(buf, crlf...)
	buf = append(buf, "Content-Length: "...)
	buf = append(buf, strconv.FormatInt(contentLength, 10)...)
	buf = append(buf, crlf...)
	buf = append(buf, "Connection: "...)
	buf = append(buf, conn...)
	buf = append(buf, crlf...)
	buf = append(buf, crlf...)
	return buf
}

// BuildResponse assembles a complete, pre-encoded HTTP/1.1 response: status
// line, Server header, Content-Type, Content-Length, Connection, a blank
// line, then body. This is the same layout the response cache uses for
// static files (spec §4.3); it also builds the fixed 400/405 responses once
// at startup, the 404 response per request (Build404), and uncached file
// responses when sendfile is off.
func BuildResponse(statusLine []byte, contentType string, body []byte, keepAlive bool) []byte {
	buf := BuildHeader(statusLine, contentType, int64(len(body)), keepAlive)
	return append(buf, body...)
}

// Fixed error bodies. 400 and 405 always close the connection (spec §7: an
// oversized unparseable request has no reliable byte boundary to resume
// from; 405's keep-alive behavior is the Open Question in spec §9,
// resolved in SPEC_FULL.md §9 toward "always closes"), so their complete
// responses never vary and are built once here rather than on every
// dispatch.
var (
	body400 = []byte("400 Bad Request\n")
	body404 = []byte("404 Not Found\n")
	body405 = []byte("405 Method Not Allowed\n")

	Response400 = BuildResponse(statusLine400, "text/plain; charset=utf-8", body400, false)
	Response405 = BuildResponse(statusLine405, "text/plain; charset=utf-8", body405, false)
)

// Build404 builds a 404 response honoring the request's own keep-alive
// decision (spec §4.4 Dispatch: "Any dynamic response respects the
// request's keep-alive"), unlike the fully fixed 400/405 above.
func Build404(keepAlive bool) []byte {
	return BuildResponse(statusLine404, "text/plain; charset=utf-8", body404, keepAlive)
}
