package proto

import (
	"bytes"
	"strconv"
)

var headerTerminator = []byte("\r\n\r\n")

// Parse implements the request parser described in spec §4.2. It never
// retains buf past the call (spec §9's "partial parse-then-buffer"
// invariance: the same function works whether buf is a stack-resident read
// buffer or a connection's heap-accumulated buffer).
//
// Return values:
//   - (req, n, nil): a complete request was parsed; n bytes were consumed
//     from buf (request line + headers + body).
//   - (nil, 0, ErrNeedMore): buf does not yet contain a full request.
//   - (nil, 0, err): buf contains a malformed request line, method, or
//     header; the caller should respond per spec §4.2 failure modes.
func Parse(buf []byte) (*Request, int, error) {
	headerEnd := bytes.Index(buf, headerTerminator)
	if headerEnd == -1 {
		return nil, 0, ErrNeedMore
	}

	req := &Request{Header: make(Header, 8)}

	// A request with no header lines ends its request line at the
	// terminator itself, leaving an empty header block.
	lineEnd := bytes.Index(buf[:headerEnd], crlf)
	headerStart := lineEnd + 2
	if lineEnd == -1 {
		lineEnd = headerEnd
		headerStart = headerEnd
	}
	if err := parseRequestLine(req, buf[:lineEnd]); err != nil {
		return nil, 0, err
	}

	if err := parseHeaders(req, buf[headerStart:headerEnd]); err != nil {
		return nil, 0, err
	}

	bodyStart := headerEnd + len(headerTerminator)
	parsedLength := bodyStart + int(req.ContentLength)
	if len(buf) < parsedLength {
		return nil, 0, ErrNeedMore
	}
	req.Body = buf[bodyStart:parsedLength]

	return req, parsedLength, nil
}

// parseRequestLine splits "METHOD PATH VERSION" on spaces (spec §4.2 step 2).
func parseRequestLine(req *Request, line []byte) error {
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 == -1 {
		return ErrInvalidRequestLine
	}
	methodID := parseMethodID(line[:sp1])
	if methodID == MethodUnknown {
		return ErrInvalidMethod
	}
	req.MethodID = methodID

	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 == -1 {
		return ErrInvalidRequestLine
	}
	path := rest[:sp2]
	if len(path) == 0 {
		path = []byte("/")
	}
	req.Path = string(path)

	version := string(rest[sp2+1:])
	if version != http11Version && version != http10Version {
		return ErrInvalidRequestLine
	}
	req.Version = version

	return nil
}

// parseHeaders splits the header block on "\r\n", ignores empty lines, and
// splits each line on the first colon (spec §4.2 step 3).
func parseHeaders(req *Request, block []byte) error {
	pos := 0
	for pos < len(block) {
		end := bytes.Index(block[pos:], crlf)
		if end == -1 {
			end = len(block) - pos
		}
		line := block[pos : pos+end]
		pos += end + 2

		if len(line) == 0 {
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if colon == -1 {
			return ErrInvalidHeader
		}
		name := line[:colon]
		value := trimLeadingSpace(trimTrailingSpace(line[colon+1:]))
		req.Header.Add(string(name), string(value))
	}

	if cl := req.Header.Get(headerContentLength); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return ErrInvalidContentLen
		}
		req.ContentLength = n
	}

	return nil
}
