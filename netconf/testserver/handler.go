package testserver

import (
	"context"
	"encoding/xml"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	assert "github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// DefaultCapabilities are advertised by a test server unless overridden with WithCapabilities.
var DefaultCapabilities = []string{
	common.CapBase10,
	common.CapBase11,
	common.CapCandidate,
	common.CapNotification,
}

const suppressHello = "-"

// SessionHandler represents the server side of an active netconf SSH session.
type SessionHandler struct {
	// t is the testing context used for handling unexpected errors.
	t assert.TestingT

	// ch is the underlying transport connection.
	ch ssh.Channel

	// Serialises access to the encoder (avoiding contention between sending notifications and request responses).
	encLock sync.Mutex
	enc     *rfc6242.Encoder

	// The capabilities advertised to the client.
	capabilities []string
	// Replaces the generated hello when set.
	rawHello string
	// The session id to be reported to the client.
	sid uint64

	// Closed once the client hello has been received.
	started   chan struct{}
	startOnce sync.Once

	helloLock   sync.Mutex
	clientHello *common.HelloMessage

	// The queue of handlers used to process incoming client requests.
	// If the queue is empty, a request is processed by the EchoRequestHandler
	reqLock     sync.Mutex
	reqHandlers []RequestHandler

	reqCount int32
	requests chan *RPCRequestMessage
}

// RPCRequestMessage and RPCRequest represent an RPC request from a client, where the element type of the
// request body is unknown.
type RPCRequestMessage struct {
	XMLName   xml.Name
	MessageID string     `xml:"message-id,attr"`
	Request   RPCRequest `xml:",any"`
}

// RPCRequest holds the operation element of a request.
type RPCRequest struct {
	XMLName xml.Name
	Body    string `xml:",innerxml"`
}

// RPCReplyMessage and replyData represent an rpc-reply message that will be sent to a client session, where the
// element type of the reply body (i.e. the content of the data element) is unknown.
type RPCReplyMessage struct {
	XMLName   xml.Name          `xml:"urn:ietf:params:xml:ns:netconf:base:1.0 rpc-reply"`
	MessageID string            `xml:"message-id,attr"`
	Errors    []common.RPCError `xml:"rpc-error,omitempty"`
	Data      *replyData        `xml:"data,omitempty"`
	Ok        *struct{}         `xml:"ok,omitempty"`
}
type replyData struct {
	Data string `xml:",innerxml"`
}

// NotifyMessage defines the contents of a notification message that will be sent to a client session, where the
// element type of the notification event is unknown.
type NotifyMessage struct {
	XMLName   xml.Name `xml:"urn:ietf:params:xml:ns:netconf:notification:1.0 notification"`
	EventTime string   `xml:"eventTime"`
	Data      string   `xml:",innerxml"`
}

// RequestHandler is a function type that will be invoked by the session handler to handle an RPC
// request.
type RequestHandler func(h *SessionHandler, req *RPCRequestMessage)

// EchoRequestHandler responds to a request with a reply containing a data element holding
// the body of the request.
var EchoRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {
	h.Reply(&RPCReplyMessage{MessageID: req.MessageID, Data: &replyData{Data: req.Request.Body}})
}

// FailingRequestHandler replies to a request with an error.
var FailingRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {
	h.Reply(&RPCReplyMessage{
		MessageID: req.MessageID,
		Errors: []common.RPCError{
			{Type: "application", Tag: "operation-failed", Severity: "error", Message: "oops"}},
	})
}

// OkRequestHandler replies to a request with an ok element.
var OkRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {
	h.Reply(&RPCReplyMessage{MessageID: req.MessageID, Ok: &struct{}{}})
}

// CloseRequestHandler closes the transport channel on request receipt.
var CloseRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {
	h.Close()
}

// CloseOnceRequestHandler delivers a handler that closes the channel of the first request it sees, and
// echoes every later request. The same handler may be shared by several sessions.
func CloseOnceRequestHandler() RequestHandler {
	var closed int32
	return func(h *SessionHandler, req *RPCRequestMessage) {
		if atomic.CompareAndSwapInt32(&closed, 0, 1) {
			h.Close()
			return
		}
		EchoRequestHandler(h, req)
	}
}

// IgnoreRequestHandler does in nothing on receipt of a request.
var IgnoreRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {}

// UnregisterRequestHandler responds to a request with a bare end-of-message token, signalling that the
// device has ended the session.
var UnregisterRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {
	h.SendRaw("]]>]]>")
}

// GarbageRequestHandler responds to a request with a malformed chunked frame.
var GarbageRequestHandler = func(h *SessionHandler, req *RPCRequestMessage) {
	h.SendRaw("\n#abc\n<rpc-reply/>\n##\n")
}

// DataRequestHandler delivers a handler that replies with data as the content of the data element.
func DataRequestHandler(data string) RequestHandler {
	return func(h *SessionHandler, req *RPCRequestMessage) {
		h.Reply(&RPCReplyMessage{MessageID: req.MessageID, Data: &replyData{Data: data}})
	}
}

// DelayRequestHandler delivers a handler that waits for d before delegating to next.
func DelayRequestHandler(d time.Duration, next RequestHandler) RequestHandler {
	return func(h *SessionHandler, req *RPCRequestMessage) {
		time.Sleep(d)
		next(h, req)
	}
}

func newSessionHandler(t assert.TestingT, sid uint64) *SessionHandler {
	return &SessionHandler{t: t,
		sid:          sid,
		started:      make(chan struct{}),
		capabilities: DefaultCapabilities,
		requests:     make(chan *RPCRequestMessage, 64),
	}
}

// Handle establishes a Netconf server session on a newly-connected SSH channel.
func (h *SessionHandler) Handle(ch ssh.Channel) {
	h.encLock.Lock()
	h.ch = ch
	h.enc = rfc6242.NewEncoder(ch)
	h.encLock.Unlock()

	switch h.rawHello {
	case suppressHello:
	case "":
		_ = h.encode(&common.HelloMessage{Capabilities: h.capabilities, SessionID: formatSessionID(h.sid)})
	default:
		h.SendRaw(h.rawHello + "]]>]]>")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan rfc6242.Event)
	go rfc6242.NewStreamReader(ch).Run(ctx, events)

	for ev := range events {
		if ev.Type != rfc6242.MessageReceived {
			return
		}
		if !h.handleMessage(ev.Message.Text) {
			return
		}
	}
}

// WaitStart blocks until the client hello has been received, or timeout elapses.
func (h *SessionHandler) WaitStart(timeout time.Duration) bool {
	select {
	case <-h.started:
		return true
	case <-time.After(timeout):
		return false
	}
}

// ClientHello delivers the hello message sent by the connecting client, if it has been received.
func (h *SessionHandler) ClientHello() *common.HelloMessage {
	h.helloLock.Lock()
	defer h.helloLock.Unlock()
	return h.clientHello
}

// SessionID delivers the session id reported to the client.
func (h *SessionHandler) SessionID() uint64 {
	return h.sid
}

// ReqCount delivers the number of requests received by the session.
func (h *SessionHandler) ReqCount() int {
	return int(atomic.LoadInt32(&h.reqCount))
}

// NextRequest delivers the next request received by the session, or nil if none arrives within timeout.
func (h *SessionHandler) NextRequest(timeout time.Duration) *RPCRequestMessage {
	select {
	case req := <-h.requests:
		return req
	case <-time.After(timeout):
		return nil
	}
}

// Reply sends reply to the client.
func (h *SessionHandler) Reply(reply *RPCReplyMessage) {
	_ = h.encode(reply)
}

// SendNotification sends a notification message with the supplied body to the client.
func (h *SessionHandler) SendNotification(body string) *SessionHandler {
	nm := &NotifyMessage{EventTime: time.Now().Format(time.RFC3339), Data: body}
	err := h.encode(nm)
	assert.NoError(h.t, err, "Failed to send server notification")
	return h
}

// SendRaw writes text to the client without framing.
func (h *SessionHandler) SendRaw(text string) {
	h.encLock.Lock()
	defer h.encLock.Unlock()
	_, _ = h.ch.Write([]byte(text))
}

// Close initiates session tear-down by closing the underlying transport channel.
func (h *SessionHandler) Close() {
	h.encLock.Lock()
	ch := h.ch
	h.encLock.Unlock()
	if ch != nil {
		ch.Close() // nolint: errcheck, gosec
	}
}

func (h *SessionHandler) handleMessage(text string) bool {
	var root struct {
		XMLName xml.Name
	}
	if err := xml.Unmarshal([]byte(text), &root); err != nil {
		return true
	}

	switch root.XMLName.Local {
	case "hello":
		h.handleHello(text)
	case "rpc":
		return h.handleRPC(text)
	}
	return true
}

func (h *SessionHandler) handleHello(text string) {
	hello := &common.HelloMessage{}
	err := xml.Unmarshal([]byte(text), hello)
	assert.NoError(h.t, err, "Failed to decode client hello")

	if common.PeerSupportsChunkedFraming(hello.Capabilities) && common.PeerSupportsChunkedFraming(h.capabilities) {
		// Update the codec to use chunked framing from now.
		h.encLock.Lock()
		rfc6242.SetChunkedFraming(h.enc)
		h.encLock.Unlock()
	}

	h.helloLock.Lock()
	h.clientHello = hello
	h.helloLock.Unlock()
	h.startOnce.Do(func() { close(h.started) })
}

func (h *SessionHandler) handleRPC(text string) bool {
	request := &RPCRequestMessage{}
	err := xml.Unmarshal([]byte(text), request)
	assert.NoError(h.t, err, "Failed to decode request")

	atomic.AddInt32(&h.reqCount, 1)
	select {
	case h.requests <- request:
	default:
	}

	if request.Request.XMLName.Local == "close-session" {
		OkRequestHandler(h, request)
		h.Close()
		return false
	}

	reqh := h.nextReqHandler()
	reqh(h, request)
	return true
}

func (h *SessionHandler) nextReqHandler() (reqh RequestHandler) {
	h.reqLock.Lock()
	defer h.reqLock.Unlock()

	if len(h.reqHandlers) == 0 {
		return EchoRequestHandler
	}
	h.reqHandlers, reqh = h.reqHandlers[1:], h.reqHandlers[0]
	return
}

func (h *SessionHandler) encode(m interface{}) error {
	b, err := xml.Marshal(m)
	if err != nil {
		return err
	}

	h.encLock.Lock()
	defer h.encLock.Unlock()

	if _, err = h.enc.Write([]byte(xml.Header)); err != nil {
		return err
	}
	if _, err = h.enc.Write(b); err != nil {
		return err
	}
	return h.enc.EndOfMessage()
}

func formatSessionID(sid uint64) string {
	return strconv.FormatUint(sid, 10)
}
