package ops

import (
	"context"
	"strings"

	"github.com/netcfg/ncclient/netconf/client"
	"github.com/netcfg/ncclient/netconf/common"
)

// Status reports whether the device executed a request.
type Status int

// Response statuses.
const (
	Success Status = iota
	Failure
)

func (s Status) String() string {
	if s == Failure {
		return "failure"
	}
	return "success"
}

// Response describes the outcome of an operation.
//
// An rpc-error of severity error in the reply sets Status to Failure; it is not reported as a Go error.
// Warnings are delivered in Errors with a Success status.
type Response struct {
	Status    Status
	MessageID string
	// Request is the rpc message that was sent.
	Request string
	// Reply is the rpc-reply message that was received.
	Reply string
	// Data is the content of the data element of the reply, if any.
	Data         string
	OK           bool
	Errors       []common.RPCError
	ErrorMessage string
}

// Err delivers the first rpc-error of severity error, or nil if the request succeeded.
func (r *Response) Err() error {
	if r.Status == Success {
		return nil
	}
	for i := range r.Errors {
		if r.Errors[i].Severity == "error" {
			return &r.Errors[i]
		}
	}
	return nil
}

func newResponse(target string, ex *client.Exchange) (*Response, error) {
	reply, err := common.ParseReply(ex.Reply)
	if err != nil {
		return nil, &client.Error{Kind: client.KindInvalidReply, Target: target, Request: ex.Request, Err: err}
	}

	resp := &Response{
		MessageID: ex.MessageID,
		Request:   ex.Request,
		Reply:     ex.Reply,
		Data:      reply.DataContent(),
		OK:        reply.IsOK(),
		Errors:    reply.Errors,
	}
	if rerr := common.FirstError(reply); rerr != nil {
		resp.Status = Failure
		resp.ErrorMessage = strings.TrimSpace(rerr.Message)
	}
	return resp, nil
}

// Future is the result of a request submitted without waiting for its reply.
type Future struct {
	s *sImpl
	p *client.PendingRequest
}

// MessageID delivers the message id allocated to the request.
func (f *Future) MessageID() string {
	return f.p.ID()
}

// Done is closed when the request completes.
func (f *Future) Done() <-chan struct{} {
	return f.p.Done()
}

// Get waits for the reply, bounded by the reply timeout and the ctx deadline.
func (f *Future) Get(ctx context.Context) (*Response, error) {
	ex, err := f.s.Session.Await(ctx, f.p)
	if err != nil {
		return nil, err
	}
	return newResponse(f.s.Target(), ex)
}
