package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	assert "github.com/stretchr/testify/require"

	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// pipeChannel is an in-memory netconf channel: a pair of pipes joining the client to a fake device.
type pipeChannel struct {
	cr *io.PipeReader // client reads
	dw *io.PipeWriter // device writes
	dr *io.PipeReader // device reads
	cw *io.PipeWriter // client writes
}

func newPipeChannel() *pipeChannel {
	cr, dw := io.Pipe()
	dr, cw := io.Pipe()
	return &pipeChannel{cr: cr, dw: dw, dr: dr, cw: cw}
}

func (c *pipeChannel) close() {
	_ = c.dw.Close()
	_ = c.cw.Close()
}

var errInjectedWrite = errors.New("injected write failure")

// pipeTransport implements Transport over pipeChannels, opening a new channel whenever a layer is
// re-established.
type pipeTransport struct {
	onOpen func(*pipeChannel)

	lock sync.Mutex
	ch   *pipeChannel

	clientClosed, sessionClosed, channelClosed atomic.Bool

	reconnects, restarts, reopens atomic.Int32

	failWrites atomic.Bool
	failOpen   atomic.Bool
}

func newPipeTransport(onOpen func(*pipeChannel)) *pipeTransport {
	pt := &pipeTransport{onOpen: onOpen}
	pt.open()
	return pt
}

func (pt *pipeTransport) open() {
	ch := newPipeChannel()
	pt.lock.Lock()
	pt.ch = ch
	pt.lock.Unlock()
	pt.channelClosed.Store(false)
	if pt.onOpen != nil {
		pt.onOpen(ch)
	}
}

func (pt *pipeTransport) current() *pipeChannel {
	pt.lock.Lock()
	defer pt.lock.Unlock()
	return pt.ch
}

func (pt *pipeTransport) Read(b []byte) (int, error) {
	n, err := pt.current().cr.Read(b)
	if err != nil {
		pt.channelClosed.Store(true)
	}
	return n, err
}

func (pt *pipeTransport) Write(b []byte) (int, error) {
	if pt.failWrites.Load() {
		return 0, errInjectedWrite
	}
	n, err := pt.current().cw.Write(b)
	if err != nil {
		pt.channelClosed.Store(true)
	}
	return n, err
}

func (pt *pipeTransport) Close() error {
	pt.clientClosed.Store(true)
	pt.sessionClosed.Store(true)
	pt.channelClosed.Store(true)
	pt.current().close()
	return nil
}

func (pt *pipeTransport) ClientClosed() bool  { return pt.clientClosed.Load() }
func (pt *pipeTransport) SessionClosed() bool { return pt.sessionClosed.Load() }
func (pt *pipeTransport) ChannelClosed() bool { return pt.channelClosed.Load() }

func (pt *pipeTransport) ReconnectClient(ctx context.Context) error {
	if pt.failOpen.Load() {
		return errors.New("connection refused")
	}
	pt.reconnects.Add(1)
	pt.clientClosed.Store(false)
	pt.sessionClosed.Store(false)
	pt.open()
	return nil
}

func (pt *pipeTransport) RestartSession(ctx context.Context) error {
	pt.restarts.Add(1)
	pt.sessionClosed.Store(false)
	pt.open()
	return nil
}

func (pt *pipeTransport) ReopenChannel(ctx context.Context) error {
	pt.reopens.Add(1)
	pt.open()
	return nil
}

func (pt *pipeTransport) CloseChannel() error {
	pt.channelClosed.Store(true)
	pt.current().close()
	return nil
}

func (pt *pipeTransport) Target() string {
	return "pipe"
}

// fail simulates the loss of layer and everything above it.
func (pt *pipeTransport) fail(layer Layer) {
	switch layer {
	case LayerClient:
		pt.clientClosed.Store(true)
		fallthrough
	case LayerSession:
		pt.sessionClosed.Store(true)
	}
	pt.CloseChannel() // nolint: errcheck
}

// fakeDevice plays the server side of every channel opened by a pipeTransport.
type fakeDevice struct {
	hello       string
	handler     func(d *fakeDevice, msg *rfc6242.RawMessage)
	ignoreClose bool

	received chan *rfc6242.RawMessage

	lock sync.Mutex
	ch   *pipeChannel
}

const deviceHello = `<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0">` +
	`<capabilities><capability>urn:ietf:params:netconf:base:1.0</capability></capabilities>` +
	`<session-id>42</session-id></hello>]]>]]>`

func newFakeDevice() *fakeDevice {
	return &fakeDevice{hello: deviceHello, received: make(chan *rfc6242.RawMessage, 64)}
}

func (d *fakeDevice) attach(ch *pipeChannel) {
	d.lock.Lock()
	d.ch = ch
	d.lock.Unlock()

	go func() {
		if d.hello != "" {
			if _, err := ch.dw.Write([]byte(d.hello)); err != nil {
				return
			}
		}

		events := make(chan rfc6242.Event)
		go rfc6242.NewStreamReader(ch.dr).Run(context.Background(), events)
		for ev := range events {
			if ev.Type != rfc6242.MessageReceived {
				continue
			}
			d.received <- ev.Message
			d.handle(ev.Message)
		}
	}()
}

func (d *fakeDevice) handle(msg *rfc6242.RawMessage) {
	switch {
	case strings.Contains(msg.Text, "<hello"):
		return
	case strings.Contains(msg.Text, "<close-session"):
		if !d.ignoreClose {
			d.reply(common.MessageID(msg.Text), "<ok/>")
		}
		return
	}

	d.lock.Lock()
	handler := d.handler
	d.lock.Unlock()
	if handler != nil {
		handler(d, msg)
	}
}

// setHandler replaces the request handler of a running device.
func (d *fakeDevice) setHandler(handler func(d *fakeDevice, msg *rfc6242.RawMessage)) {
	d.lock.Lock()
	d.handler = handler
	d.lock.Unlock()
}

func (d *fakeDevice) channel() *pipeChannel {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.ch
}

// send writes text to the client on the current channel.
func (d *fakeDevice) send(text string) error {
	_, err := d.channel().dw.Write([]byte(text))
	return err
}

func (d *fakeDevice) reply(id, body string) {
	_ = d.send(fmt.Sprintf(`<rpc-reply message-id="%s" xmlns="%s">%s</rpc-reply>]]>]]>`, id, common.NetconfNS, body))
}

// next delivers the next message received from the client.
func (d *fakeDevice) next(t *testing.T) *rfc6242.RawMessage {
	select {
	case msg := <-d.received:
		return msg
	case <-time.After(5 * time.Second):
		assert.FailNow(t, "no message received from client")
	}
	return nil
}

// okReplies replies to every request with an ok element.
func okReplies(d *fakeDevice, msg *rfc6242.RawMessage) {
	d.reply(common.MessageID(msg.Text), "<ok/>")
}

// connected delivers an open session over a pipeTransport served by d. The client hello is consumed.
func connected(t *testing.T, d *fakeDevice, cfg *Config) (*sesImpl, *pipeTransport) {
	return connectedWithTrace(t, d, cfg, NoOpLoggingHooks)
}

func connectedWithTrace(t *testing.T, d *fakeDevice, cfg *Config, trace *ClientTrace) (*sesImpl, *pipeTransport) {
	pt := newPipeTransport(d.attach)
	si := newSession(WithClientTrace(context.Background(), trace), pt, cfg)
	assert.NoError(t, si.Connect(context.Background()))
	assert.Contains(t, d.next(t).Text, "<hello")
	return si, pt
}
