package client

import (
	"context"
	"sync"
	"time"
)

// PendingRequest is a request awaiting its reply. Its result is assigned at most once.
type PendingRequest struct {
	id      string
	request string
	created time.Time

	done  chan struct{}
	once  sync.Once
	reply string
	err   error
}

func newPendingRequest(id, request string) *PendingRequest {
	return &PendingRequest{id: id, request: request, created: time.Now(), done: make(chan struct{})}
}

// ID delivers the message id of the request.
func (p *PendingRequest) ID() string {
	return p.id
}

// Request delivers the text of the request.
func (p *PendingRequest) Request() string {
	return p.request
}

// Created delivers the time the request was registered.
func (p *PendingRequest) Created() time.Time {
	return p.created
}

// Done delivers a channel that is closed when the result has been assigned.
func (p *PendingRequest) Done() <-chan struct{} {
	return p.done
}

// Result delivers the reply text or failure. It must only be called once Done is closed.
func (p *PendingRequest) Result() (string, error) {
	return p.reply, p.err
}

// Wait blocks until the result is assigned or ctx is done.
func (p *PendingRequest) Wait(ctx context.Context) (string, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *PendingRequest) complete(reply string) bool {
	return p.assign(reply, nil)
}

func (p *PendingRequest) fail(err error) bool {
	return p.assign("", err)
}

func (p *PendingRequest) assign(reply string, err error) (assigned bool) {
	p.once.Do(func() {
		p.reply, p.err = reply, err
		close(p.done)
		assigned = true
	})
	return
}

// correlationTable maps message ids to requests awaiting a reply.
type correlationTable struct {
	lock    sync.Mutex
	pending map[string]*PendingRequest
}

func newCorrelationTable() *correlationTable {
	return &correlationTable{pending: make(map[string]*PendingRequest)}
}

func (ct *correlationTable) insert(p *PendingRequest) {
	ct.lock.Lock()
	defer ct.lock.Unlock()
	ct.pending[p.id] = p
}

// complete assigns reply to the request registered under id and removes it, reporting whether
// such a request existed.
func (ct *correlationTable) complete(id, reply string) bool {
	ct.lock.Lock()
	p, ok := ct.pending[id]
	delete(ct.pending, id)
	ct.lock.Unlock()

	if ok {
		p.complete(reply)
	}
	return ok
}

// clear abandons every registered request. Abandoned requests are never completed.
func (ct *correlationTable) clear() int {
	ct.lock.Lock()
	defer ct.lock.Unlock()
	n := len(ct.pending)
	ct.pending = make(map[string]*PendingRequest)
	return n
}

func (ct *correlationTable) len() int {
	ct.lock.Lock()
	defer ct.lock.Unlock()
	return len(ct.pending)
}

func (ct *correlationTable) contains(id string) bool {
	ct.lock.Lock()
	defer ct.lock.Unlock()
	_, ok := ct.pending[id]
	return ok
}
