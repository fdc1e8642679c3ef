package client

import (
	"fmt"
	"strings"
)

// Kind classifies the failures reported by a Session.
type Kind int

// Failure kinds.
const (
	// KindConnect reports that the transport or the hello exchange could not be established.
	KindConnect Kind = iota + 1
	// KindMissingSessionID reports a server hello without a session-id.
	KindMissingSessionID
	// KindMalformedFrame reports a message that violates the framing grammar.
	KindMalformedFrame
	// KindWrite reports that a request could not be written to the transport.
	KindWrite
	// KindReplyTimeout reports that no reply arrived within the reply timeout.
	KindReplyTimeout
	// KindInterrupted reports that the wait for a reply was cancelled.
	KindInterrupted
	// KindInvalidReply reports a reply that is not a well-formed rpc-reply.
	KindInvalidReply
	// KindClosed reports use of a session that has been closed.
	KindClosed
)

var kindNames = map[Kind]string{
	KindConnect:          "connect failed",
	KindMissingSessionID: "missing session id",
	KindMalformedFrame:   "malformed frame",
	KindWrite:            "write failed",
	KindReplyTimeout:     "reply timeout",
	KindInterrupted:      "interrupted",
	KindInvalidReply:     "invalid reply",
	KindClosed:           "session closed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the error type returned by Session operations.
//
// Errors match any other *Error of the same Kind with errors.Is, so callers branch on the
// sentinel values below:
//
//	if errors.Is(err, client.ErrReplyTimeout) { ... }
type Error struct {
	Kind Kind
	// Target identifies the device.
	Target string
	// Request holds the request text, when the failure concerns a request.
	Request string
	// Err is the underlying cause, if any.
	Err error
}

// Sentinel errors, one per Kind.
var (
	ErrConnect          = &Error{Kind: KindConnect}
	ErrMissingSessionID = &Error{Kind: KindMissingSessionID}
	ErrMalformedFrame   = &Error{Kind: KindMalformedFrame}
	ErrWrite            = &Error{Kind: KindWrite}
	ErrReplyTimeout     = &Error{Kind: KindReplyTimeout}
	ErrInterrupted      = &Error{Kind: KindInterrupted}
	ErrInvalidReply     = &Error{Kind: KindInvalidReply}
	ErrClosed           = &Error{Kind: KindClosed}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("netconf: ")
	b.WriteString(e.Kind.String())
	if e.Target != "" {
		fmt.Fprintf(&b, " target:%s", e.Target)
	}
	if e.Request != "" {
		fmt.Fprintf(&b, " request:%s", abbreviate(e.Request, 128))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap delivers the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause delivers the underlying cause, for github.com/pkg/errors.
func (e *Error) Cause() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, target, request string, cause error) *Error {
	return &Error{Kind: kind, Target: target, Request: request, Err: cause}
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
