package client

import (
	"context"
	"encoding/xml"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// The Message layer defines a set of base protocol operations
// invoked as RPC methods with XML-encoded parameters.

//go:generate mockery --name=Session --output=mocks

// Session represents a Netconf Session
type Session interface {
	// Connect establishes the transport if required, exchanges hello messages with the server and
	// opens the session.
	Connect(ctx context.Context) error

	// Disconnect closes the session gracefully if possible, and then closes the transport.
	// Requests still awaiting a reply are abandoned.
	Disconnect(ctx context.Context) error

	// Reconnect disconnects and connects again.
	Reconnect(ctx context.Context) error

	// ReconnectIfNeeded re-establishes any failed transport layer, reporting whether recovery took place.
	// Recovery abandons every request awaiting a reply.
	ReconnectIfNeeded(ctx context.Context) (bool, error)

	// Execute executes an RPC request on the server and returns the exchange once the reply arrives.
	// The wait is bounded by the reply timeout and by the ctx deadline, whichever is earlier.
	Execute(ctx context.Context, req common.Request) (*Exchange, error)

	// ExecuteAsync submits an RPC request for execution on the server, returning the pending request
	// without waiting for the reply. Use Await to collect it.
	ExecuteAsync(ctx context.Context, req common.Request) (*PendingRequest, error)

	// Await waits for the reply to a request submitted by ExecuteAsync.
	Await(ctx context.Context, p *PendingRequest) (*Exchange, error)

	// Subscribe issues an RPC request and returns the reply. If successful, notifications will
	// be sent to the supplied channel until the session is disconnected, when the channel is closed.
	Subscribe(ctx context.Context, req common.Request, nchan chan *common.Notification) (*Exchange, error)

	// Close disconnects the session and releases any associated resources.
	Close()

	// ID delivers the server-allocated id of the session.
	ID() string

	// ServerCapabilities delivers the server-supplied capabilities.
	ServerCapabilities() []string

	// State delivers the lifecycle state of the session.
	State() State

	// ErrorReplies delivers the error and malformed messages received so far, oldest first.
	ErrorReplies() []ErrorReply

	// Target identifies the server.
	Target() string

	// InstanceID delivers a client-allocated identifier, unique to this session object.
	InstanceID() string
}

// State is the lifecycle state of a session.
type State int32

// Lifecycle states.
const (
	Disconnected State = iota
	Connecting
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// Exchange holds a request and the reply it received.
type Exchange struct {
	MessageID string
	Request   string
	Reply     string
}

// ErrorReply records an error or malformed message received from the server, or a failure of the
// stream reading it.
type ErrorReply struct {
	Time      time.Time
	MessageID string
	Text      string
	Err       error
}

// helloID is the correlation key of the hello exchange.
const helloID = "-1"

const closeSessionRequest = `<close-session/>`

type sesImpl struct {
	cfg      *Config
	t        Transport
	trace    *ClientTrace
	target   string
	instance string

	table  *correlationTable
	gate   *sendGate
	nextID atomic.Uint64

	// Serialises connect, disconnect and recovery.
	lcLock   sync.Mutex
	state    atomic.Int32
	closed   atomic.Bool
	recovery singleflight.Group

	// The stream of the current connection, guarded by lcLock. current mirrors it for readers that do
	// not hold lcLock.
	stream  *stream
	gen     uint64
	current atomic.Pointer[stream]

	infoLock sync.RWMutex
	hello    *common.HelloMessage

	errLock      sync.Mutex
	errorReplies []ErrorReply

	subLock sync.Mutex
	subchan chan *common.Notification

	notificationDropCount atomic.Uint64
}

// stream is one generation of the reader and listener goroutines.
type stream struct {
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	alive  atomic.Bool
}

// New creates an unconnected session over the supplied Transport. No goroutines are started until
// Connect is called. Trace hooks are taken from ctx.
func New(ctx context.Context, t Transport, cfg *Config) Session {
	return newSession(ctx, t, cfg)
}

func newSession(ctx context.Context, t Transport, cfg *Config) *sesImpl {
	si := &sesImpl{
		cfg:      resolveConfig(cfg),
		t:        t,
		trace:    ContextClientTrace(ctx),
		target:   t.Target(),
		instance: uuid.NewString(),
		table:    newCorrelationTable(),
	}
	si.gate = newSendGate(t, si.table, si.target)
	si.trace.SessionCreated(si.target, si.instance)
	return si
}

// NewSession creates a new Netconf session, using the supplied Transport, and connects it.
func NewSession(ctx context.Context, t Transport, cfg *Config) (Session, error) {
	si := newSession(ctx, t, cfg)
	if err := si.Connect(ctx); err != nil {
		return nil, err
	}
	return si, nil
}

func (si *sesImpl) Connect(ctx context.Context) error {
	si.lcLock.Lock()
	defer si.lcLock.Unlock()

	si.closed.Store(false)
	if si.State() == Open {
		return nil
	}
	return si.connect(ctx)
}

func (si *sesImpl) Disconnect(ctx context.Context) error {
	si.lcLock.Lock()
	defer si.lcLock.Unlock()

	si.closed.Store(true)
	si.disconnect(ctx)
	return nil
}

func (si *sesImpl) Reconnect(ctx context.Context) error {
	si.lcLock.Lock()
	defer si.lcLock.Unlock()

	si.disconnect(ctx)
	si.closed.Store(false)
	return si.connect(ctx)
}

func (si *sesImpl) ReconnectIfNeeded(ctx context.Context) (bool, error) {
	if si.healthy() {
		return false, nil
	}

	// Concurrent callers share a single recovery.
	v, err, _ := si.recovery.Do("recover", func() (interface{}, error) {
		si.lcLock.Lock()
		defer si.lcLock.Unlock()

		if si.closed.Load() {
			return false, newError(KindClosed, si.target, "", nil)
		}
		if si.healthy() {
			return false, nil
		}
		return true, si.recover(ctx)
	})
	recovered, _ := v.(bool)
	return recovered && err == nil, err
}

func (si *sesImpl) healthy() bool {
	if si.State() != Open {
		return false
	}
	if st := si.current.Load(); st == nil || !st.alive.Load() {
		return false
	}
	return !si.t.ClientClosed() && !si.t.SessionClosed() && !si.t.ChannelClosed()
}

func (si *sesImpl) Close() {
	if err := si.Disconnect(context.Background()); err != nil {
		si.trace.Error("Session close failed", si.target, err)
	}
}

func (si *sesImpl) ID() string {
	si.infoLock.RLock()
	defer si.infoLock.RUnlock()
	if si.hello == nil {
		return ""
	}
	return si.hello.SessionID
}

func (si *sesImpl) ServerCapabilities() []string {
	si.infoLock.RLock()
	defer si.infoLock.RUnlock()
	if si.hello == nil {
		return nil
	}
	return append([]string(nil), si.hello.Capabilities...)
}

func (si *sesImpl) State() State {
	return State(si.state.Load())
}

func (si *sesImpl) ErrorReplies() []ErrorReply {
	si.errLock.Lock()
	defer si.errLock.Unlock()
	return append([]ErrorReply(nil), si.errorReplies...)
}

func (si *sesImpl) Target() string {
	return si.target
}

func (si *sesImpl) InstanceID() string {
	return si.instance
}

func (si *sesImpl) Execute(ctx context.Context, req common.Request) (ex *Exchange, err error) {

	si.trace.ExecuteStart(req, false)
	defer func(begin time.Time) {
		var reply string
		if ex != nil {
			reply = ex.Reply
		}
		si.trace.ExecuteDone(req, false, reply, err, time.Since(begin))
	}(time.Now())

	p, err := si.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return si.Await(ctx, p)
}

func (si *sesImpl) ExecuteAsync(ctx context.Context, req common.Request) (p *PendingRequest, err error) {

	si.trace.ExecuteStart(req, true)
	defer func(begin time.Time) {
		si.trace.ExecuteDone(req, true, "", err, time.Since(begin))
	}(time.Now())

	return si.submit(ctx, req)
}

func (si *sesImpl) Subscribe(ctx context.Context, req common.Request, nchan chan *common.Notification) (*Exchange, error) {
	// Store the notification channel for the session.
	si.subLock.Lock()
	si.subchan = nchan
	si.subLock.Unlock()
	return si.Execute(ctx, req)
}

// submit allocates the next message id, stamps it into the request, recovers the transport if
// required and sends the request.
func (si *sesImpl) submit(ctx context.Context, req common.Request) (*PendingRequest, error) {
	if si.closed.Load() {
		return nil, newError(KindClosed, si.target, "", nil)
	}

	id := strconv.FormatUint(si.nextID.Add(1), 10)
	body, err := common.BuildRPC(id, req)
	if err != nil {
		return nil, err
	}

	if _, err = si.ReconnectIfNeeded(ctx); err != nil {
		return nil, err
	}
	return si.gate.send(body, id), nil
}

func (si *sesImpl) Await(ctx context.Context, p *PendingRequest) (*Exchange, error) {
	reply, err := si.await(ctx, p, si.cfg.ReplyTimeout)
	if err != nil {
		if errors.Is(err, ErrInterrupted) {
			si.interrupt()
		}
		return nil, err
	}
	return &Exchange{MessageID: p.id, Request: p.request, Reply: reply}, nil
}

// await waits for the result of p for at most timeout.
func (si *sesImpl) await(ctx context.Context, p *PendingRequest, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.Done():
		return p.Result()
	case <-timer.C:
		return "", newError(KindReplyTimeout, si.target, p.request, errors.Errorf("no reply after %s", timeout))
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", newError(KindReplyTimeout, si.target, p.request, ctx.Err())
		}
		return "", newError(KindInterrupted, si.target, p.request, ctx.Err())
	}
}

// interrupt discards the session state after a wait was cancelled: the transport is closed and the
// error replies and pending requests are cleared. The listener disconnects the session when the
// stream ends.
func (si *sesImpl) interrupt() {
	if err := si.t.Close(); err != nil {
		si.trace.Error("Transport close failed", si.target, err)
	}
	si.errLock.Lock()
	si.errorReplies = nil
	si.errLock.Unlock()
	si.table.clear()
}

// connect requires lcLock.
func (si *sesImpl) connect(ctx context.Context) error {
	si.setState(Connecting)
	if _, err := si.recoverTransport(ctx); err != nil {
		si.setState(Disconnected)
		return newError(KindConnect, si.target, "", err)
	}
	return si.handshake(ctx)
}

// recover requires lcLock.
func (si *sesImpl) recover(ctx context.Context) (err error) {
	si.trace.ReconnectStart(si.target)
	layer := LayerNone
	defer func(begin time.Time) {
		si.trace.ReconnectDone(si.target, layer, err, time.Since(begin))
	}(time.Now())

	// Abandon pending requests before the old stream is drained, so that no late reply completes them.
	si.table.clear()
	si.setState(Connecting)
	si.stopStream()

	if layer, err = si.recoverTransport(ctx); err != nil {
		si.setState(Disconnected)
		return newError(KindConnect, si.target, "", err)
	}
	return si.handshake(ctx)
}

// recoverTransport re-establishes the widest failed transport layer.
func (si *sesImpl) recoverTransport(ctx context.Context) (Layer, error) {
	switch {
	case si.t.ClientClosed():
		return LayerClient, si.t.ReconnectClient(ctx)
	case si.t.SessionClosed():
		return LayerSession, si.t.RestartSession(ctx)
	case si.t.ChannelClosed():
		return LayerChannel, si.t.ReopenChannel(ctx)
	}
	return LayerNone, nil
}

// handshake starts a new stream and exchanges hello messages. It requires lcLock.
func (si *sesImpl) handshake(ctx context.Context) error {
	si.table.clear()
	si.gate.setFraming(false)

	caps := common.DefaultCapabilities
	if si.cfg.DisableChunkedCodec {
		caps = common.NoChunkedCodecCapabilities
	}
	body, err := xml.Marshal(&common.HelloMessage{Capabilities: caps})
	if err != nil {
		si.setState(Disconnected)
		return newError(KindConnect, si.target, "", err)
	}

	// The server may send its hello as soon as the channel opens, so the hello is registered before
	// the stream starts.
	p := si.gate.register(string(body), helloID)
	si.startStream()
	si.gate.transmit(p)

	reply, err := si.await(ctx, p, si.cfg.setupTimeout())
	if err != nil {
		return si.abortHandshake(newError(KindConnect, si.target, p.request, err))
	}

	hello, err := common.ParseHello(reply)
	if err != nil {
		return si.abortHandshake(newError(KindMissingSessionID, si.target, "", err))
	}

	si.infoLock.Lock()
	si.hello = hello
	si.infoLock.Unlock()

	if !si.cfg.DisableChunkedCodec && common.PeerSupportsChunkedFraming(hello.Capabilities) {
		// Update the codec to use chunked framing from now.
		si.gate.setFraming(true)
	}
	si.trace.HelloDone(hello)
	si.setState(Open)
	return nil
}

func (si *sesImpl) abortHandshake(err *Error) error {
	si.trace.Error("Hello exchange failed", si.target, err)
	si.table.clear()
	si.stopStream()
	si.setState(Disconnected)
	return err
}

// disconnect requires lcLock.
func (si *sesImpl) disconnect(ctx context.Context) {
	if si.State() == Disconnected && si.stream == nil {
		return
	}
	si.setState(Closing)

	if si.stream != nil && si.stream.alive.Load() {
		if err := si.closeSession(ctx); err != nil {
			si.trace.Error("Graceful close-session failed", si.target, err)
			if err = si.forceCloseSession(); err != nil {
				si.trace.Error("Forced close-session failed", si.target, err)
			}
		}
	}

	if err := si.t.Close(); err != nil {
		si.trace.Error("Transport close failed", si.target, err)
	}
	si.table.clear()
	si.stopStream()

	si.subLock.Lock()
	if si.subchan != nil {
		close(si.subchan)
		si.subchan = nil
	}
	si.subLock.Unlock()

	si.setState(Disconnected)
}

// closeSession sends close-session and waits for the reply, without attempting recovery.
func (si *sesImpl) closeSession(ctx context.Context) error {
	id := strconv.FormatUint(si.nextID.Add(1), 10)
	body, err := common.BuildRPC(id, closeSessionRequest)
	if err != nil {
		return err
	}
	reply, err := si.await(ctx, si.gate.send(body, id), si.cfg.ReplyTimeout)
	if err != nil {
		return err
	}
	if common.ContainsRPCError(reply) {
		return newError(KindInvalidReply, si.target, body, errors.New("close-session rejected"))
	}
	return nil
}

// forceCloseSession writes close-session without registering or awaiting a reply.
func (si *sesImpl) forceCloseSession() error {
	id := strconv.FormatUint(si.nextID.Add(1), 10)
	body, err := common.BuildRPC(id, closeSessionRequest)
	if err != nil {
		return err
	}
	return si.gate.sendOnly(body)
}

// startStream launches the reader and listener for a new stream generation. It requires lcLock.
func (si *sesImpl) startStream() {
	si.gen++
	ctx, cancel := context.WithCancel(context.Background())
	st := &stream{gen: si.gen, cancel: cancel, done: make(chan struct{})}
	st.alive.Store(true)

	events := make(chan rfc6242.Event, 16)
	reader := rfc6242.NewStreamReader(si.t, rfc6242.WithMaxMessageSize(si.cfg.MaxMessageSize))

	si.stream = st
	si.current.Store(st)
	go reader.Run(ctx, events)
	go si.listen(st, events)
}

// stopStream ends the current stream and waits for its goroutines to finish. It requires lcLock.
func (si *sesImpl) stopStream() {
	st := si.stream
	if st == nil {
		return
	}
	si.stream = nil
	si.current.Store(nil)

	st.cancel()
	if err := si.t.CloseChannel(); err != nil {
		si.trace.Error("Channel close failed", si.target, err)
	}
	<-st.done
}

func (si *sesImpl) setState(s State) {
	if old := State(si.state.Swap(int32(s))); old != s {
		si.trace.StateChanged(si.target, old, s)
	}
}
