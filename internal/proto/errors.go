package proto

import "errors"

// ErrNeedMore is returned by Parse when the supplied view does not yet
// contain a complete request. The caller should read more bytes and try
// again (spec §4.2 step 1 and step 4). On its own it is not a client
// error; the worker answers 400 only once the accumulated buffer exceeds
// MaxAccumulatedRequest.
var ErrNeedMore = errors.New("proto: need more data")

// Malformed-request errors. These are distinguished from ErrNeedMore so a
// caller can tell a genuinely bad request apart from a partial one.
var (
	ErrInvalidRequestLine = errors.New("proto: invalid request line")
	ErrInvalidMethod      = errors.New("proto: invalid or unsupported method")
	ErrInvalidHeader      = errors.New("proto: invalid header line")
	ErrInvalidContentLen  = errors.New("proto: invalid content-length")
)
