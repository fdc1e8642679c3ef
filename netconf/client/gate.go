package client

import (
	"bufio"
	"encoding/xml"
	"io"
	"sync"

	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// sendGate serialises writes to the transport. Each request is registered in the correlation table
// before it is written, so that a reply can never arrive ahead of its registration.
type sendGate struct {
	lock   sync.Mutex
	table  *correlationTable
	out    io.Writer
	writer *bufio.Writer
	enc    *rfc6242.Encoder
	target string
}

func newSendGate(w io.Writer, table *correlationTable, target string) *sendGate {
	bw := bufio.NewWriter(w)
	return &sendGate{table: table, out: w, writer: bw, enc: rfc6242.NewEncoder(bw), target: target}
}

// send registers a pending request for id and writes body. A write failure fails the returned request;
// its table entry is left for a reply or a reconnect to clear.
func (g *sendGate) send(body, id string) *PendingRequest {
	p := g.register(body, id)
	g.transmit(p)
	return p
}

func (g *sendGate) register(body, id string) *PendingRequest {
	p := newPendingRequest(id, body)
	g.table.insert(p)
	return p
}

func (g *sendGate) transmit(p *PendingRequest) {
	if err := g.write(p.request); err != nil {
		p.fail(newError(KindWrite, g.target, p.request, err))
	}
}

// sendOnly writes body without registering it.
func (g *sendGate) sendOnly(body string) error {
	return g.write(body)
}

func (g *sendGate) write(body string) (err error) {
	g.lock.Lock()
	defer g.lock.Unlock()

	if _, err = g.enc.Write([]byte(xml.Header)); err != nil {
		return g.reset(err)
	}
	if _, err = g.enc.Write([]byte(body)); err != nil {
		return g.reset(err)
	}
	if err = g.enc.EndOfMessage(); err != nil {
		return g.reset(err)
	}
	return g.reset(g.writer.Flush())
}

// reset discards any partially written message after a failure.
func (g *sendGate) reset(err error) error {
	if err != nil {
		g.writer.Reset(g.out)
	}
	return err
}

// setFraming selects the framing used for subsequent messages.
func (g *sendGate) setFraming(chunked bool) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if chunked {
		rfc6242.SetChunkedFraming(g.enc)
	} else {
		rfc6242.ClearChunkedFraming(g.enc)
	}
}
