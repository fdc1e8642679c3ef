package testutil

import (
	"context"
	"log"
	"net"

	"github.com/imdario/mergo"
)

// unique type to prevent assignment.
type sshEventContextKey struct{}

// ContextSSHTrace returns the Trace associated with the
// provided context. If none, it returns a trace with no-op hooks.
func ContextSSHTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(sshEventContextKey{}).(*Trace)
	if trace == nil {
		trace = NoOpLoggingHooks
	} else {
		_ = mergo.Merge(trace, NoOpLoggingHooks)
	}
	return trace
}

// WithSSHTrace returns a new context based on the provided parent
// ctx. Servers created with the returned context will use
// the provided trace hooks
func WithSSHTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, sshEventContextKey{}, trace)
}

// Trace defines a structure for handling server trace events
type Trace struct {
	// Listened is called when a Listen() call completes, with err indicating
	// whether it was successful.
	Listened func(address string, err error)

	// StartAccepting is called when starting to accept connections.
	StartAccepting func()

	// Accepted is called when an Accept() call completes, with err indicating
	// whether it was successful.
	Accepted func(conn net.Conn, err error)

	// NewServerConn is called when the ssh handshake on a connection completes.
	NewServerConn func(conn net.Conn, err error)

	// SSHChannelAccept is called when a ssh channel Accept() call completes.
	SSHChannelAccept func(conn net.Conn, err error)

	// SubsystemRequestReply is called when a subsystem request Reply call completes.
	SubsystemRequestReply func(err error)
}

// DiagnosticLoggingHooks provides a set of default diagnostic hooks
var DiagnosticLoggingHooks = &Trace{
	Listened: func(address string, err error) {
		log.Printf("SSH-Listened address:%s err:%v\n", address, err)
	},
	StartAccepting: func() {
		log.Printf("SSH-StartAccepting\n")
	},
	Accepted: func(conn net.Conn, err error) {
		log.Printf("SSH-Accepted err:%v\n", err)
	},
	NewServerConn: func(conn net.Conn, err error) {
		log.Printf("SSH-NewServerConn remote:%s err:%v\n", conn.RemoteAddr(), err)
	},
	SSHChannelAccept: func(conn net.Conn, err error) {
		log.Printf("SSH-ChannelAccept remote:%s err:%v\n", conn.RemoteAddr(), err)
	},
	SubsystemRequestReply: func(err error) {
		log.Printf("SSH-SubsystemRequestReply err:%v\n", err)
	},
}

// NoOpLoggingHooks provides set of hooks that do nothing.
var NoOpLoggingHooks = &Trace{
	Listened:              func(address string, err error) {},
	StartAccepting:        func() {},
	Accepted:              func(conn net.Conn, err error) {},
	NewServerConn:         func(conn net.Conn, err error) {},
	SSHChannelAccept:      func(conn net.Conn, err error) {},
	SubsystemRequestReply: func(err error) {},
}
