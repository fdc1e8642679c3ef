package client

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// The Secure Transport layer provides a communication path between
// the client and server.  NETCONF can be layered over any
// transport protocol that provides a set of basic requirements.

//go:generate mockgen -destination=mocks/transport.go -package=mocks github.com/netcfg/ncclient/netconf/client Transport

// Transport interface defines what characteristics make up a NETCONF transport
// layer object.
//
// A transport is made of three layers that can fail independently: the client (the network
// connection), the session (the secure shell connection running over it) and the channel (the
// netconf subsystem running over the session). Reads and writes always use the current channel.
type Transport interface {
	io.ReadWriteCloser

	// ClientClosed reports whether the network connection has been lost.
	ClientClosed() bool
	// SessionClosed reports whether the secure shell connection has been lost.
	SessionClosed() bool
	// ChannelClosed reports whether the netconf channel has been lost.
	ChannelClosed() bool

	// ReconnectClient re-establishes all layers.
	ReconnectClient(ctx context.Context) error
	// RestartSession re-establishes the session and channel layers.
	RestartSession(ctx context.Context) error
	// ReopenChannel re-establishes the channel layer over the current session.
	ReopenChannel(ctx context.Context) error
	// CloseChannel closes the channel layer only, ending any read in progress.
	CloseChannel() error

	// Target identifies the remote server.
	Target() string
}

// Layer identifies a transport layer.
type Layer int

// Transport layers, in order of increasing scope.
const (
	LayerNone Layer = iota
	LayerChannel
	LayerSession
	LayerClient
)

func (l Layer) String() string {
	switch l {
	case LayerChannel:
		return "channel"
	case LayerSession:
		return "session"
	case LayerClient:
		return "client"
	}
	return "none"
}

// TransportOption configures an ssh transport.
type TransportOption func(*tImpl)

// WithConnectTimeout bounds the time taken to establish the network connection and the ssh handshake.
func WithConnectTimeout(d time.Duration) TransportOption {
	return func(t *tImpl) {
		t.connectTimeout = d
	}
}

// WithIdleTimeout causes the network connection to fail when no data has been sent or received for d.
func WithIdleTimeout(d time.Duration) TransportOption {
	return func(t *tImpl) {
		t.idleTimeout = d
	}
}

type tImpl struct {
	target         string
	subsystem      string
	clientConfig   *ssh.ClientConfig
	connectTimeout time.Duration
	idleTimeout    time.Duration
	trace          *ClientTrace

	// Guards the layer fields below; reads and writes take a snapshot and then proceed unlocked.
	lock        sync.Mutex
	conn        *trackedConn
	sshClient   *ssh.Client
	sshSession  *ssh.Session
	reader      io.Reader
	writeCloser io.WriteCloser

	sessionClosed *atomic.Bool
	channelClosed *atomic.Bool
}

// NewSSHTransport creates a new SSH transport, connecting to the target with the supplied client configuration
// and requesting the specified subsystem.
func NewSSHTransport(ctx context.Context, clientConfig *ssh.ClientConfig, target, subsystem string, opts ...TransportOption) (rt Transport, err error) {

	impl := &tImpl{
		target:       target,
		subsystem:    subsystem,
		clientConfig: clientConfig,
		trace:        ContextClientTrace(ctx),
	}
	for _, opt := range opts {
		opt(impl)
	}

	if err = impl.connect(ctx); err != nil {
		return nil, err
	}
	return impl, nil
}

func (t *tImpl) Read(p []byte) (n int, err error) {
	t.lock.Lock()
	r, closed := t.reader, t.channelClosed
	t.lock.Unlock()
	if r == nil {
		return 0, io.EOF
	}

	n, err = r.Read(p)
	if err != nil {
		closed.Store(true)
	}
	return
}

func (t *tImpl) Write(p []byte) (n int, err error) {
	t.lock.Lock()
	w, closed := t.writeCloser, t.channelClosed
	t.lock.Unlock()
	if w == nil {
		return 0, io.ErrClosedPipe
	}

	n, err = w.Write(p)
	if err != nil {
		closed.Store(true)
	}
	return
}

// Close closes all transport resources in the following order:
//
//  1. stdin pipe
//  2. SSH session
//  3. SSH client
//
// Errors are returned with priority matching the same order.
func (t *tImpl) Close() (err error) {
	defer func() {
		t.trace.ConnectionClosed(t.target, err)
	}()

	t.lock.Lock()
	defer t.lock.Unlock()

	err = t.closeChannel()
	if sessErr := t.closeSession(); err == nil {
		err = sessErr
	}
	return err
}

func (t *tImpl) Target() string {
	return t.target
}

func (t *tImpl) ClientClosed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.conn == nil || t.conn.closed.Load()
}

func (t *tImpl) SessionClosed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.sshClient == nil || t.sessionClosed.Load()
}

func (t *tImpl) ChannelClosed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.sshSession == nil || t.channelClosed.Load()
}

func (t *tImpl) ReconnectClient(ctx context.Context) error {
	return t.connect(ctx)
}

// RestartSession re-establishes the ssh connection. An ssh connection cannot be renegotiated over the
// network connection it was closed on, so this dials again.
func (t *tImpl) RestartSession(ctx context.Context) error {
	return t.connect(ctx)
}

func (t *tImpl) ReopenChannel(ctx context.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	_ = t.closeChannel()
	if t.sshClient == nil {
		return errors.New("no ssh session to open a channel on")
	}
	return t.openChannel()
}

func (t *tImpl) CloseChannel() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.closeChannel()
}

// connect establishes every layer, replacing any existing ones.
func (t *tImpl) connect(ctx context.Context) (err error) {
	t.trace.ConnectStart(t.target)
	defer func(begin time.Time) {
		t.trace.ConnectDone(t.target, err, time.Since(begin))
	}(time.Now())

	t.lock.Lock()
	defer t.lock.Unlock()

	_ = t.closeChannel()
	_ = t.closeSession()

	if err = t.dial(ctx); err != nil {
		return err
	}
	if err = t.openChannel(); err != nil {
		_ = t.closeSession()
	}
	return err
}

func (t *tImpl) dial(ctx context.Context) (err error) {
	t.trace.DialStart(t.clientConfig, t.target)
	defer func(begin time.Time) {
		t.trace.DialDone(t.clientConfig, t.target, err, time.Since(begin))
	}(time.Now())

	if t.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.connectTimeout)
		defer cancel()
	}

	d := &net.Dialer{}
	nconn, err := d.DialContext(ctx, "tcp", t.target)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", t.target)
	}

	// The ssh handshake is bounded by the same deadline as the dial.
	if deadline, ok := ctx.Deadline(); ok {
		_ = nconn.SetDeadline(deadline)
	}
	conn := &trackedConn{Conn: nconn, closed: &atomic.Bool{}}
	sconn, chans, reqs, err := ssh.NewClientConn(conn, t.target, t.clientConfig)
	if err != nil {
		_ = nconn.Close()
		return errors.Wrapf(err, "ssh handshake with %s failed", t.target)
	}
	_ = nconn.SetDeadline(time.Time{})
	conn.setIdleTimeout(t.idleTimeout)

	t.conn = conn
	t.sshClient = ssh.NewClient(sconn, chans, reqs)
	t.sessionClosed = &atomic.Bool{}
	go watchSession(t.sshClient, t.sessionClosed)
	return nil
}

func watchSession(c *ssh.Client, closed *atomic.Bool) {
	_ = c.Wait()
	closed.Store(true)
}

func (t *tImpl) openChannel() (err error) {
	var sess *ssh.Session
	if sess, err = t.sshClient.NewSession(); err != nil {
		return errors.Wrap(err, "failed to open channel")
	}
	defer func() {
		if err != nil {
			_ = sess.Close()
		}
	}()

	if err = sess.RequestSubsystem(t.subsystem); err != nil {
		return errors.Wrapf(err, "subsystem %s request failed", t.subsystem)
	}

	var reader io.Reader
	if reader, err = sess.StdoutPipe(); err != nil {
		return errors.Wrap(err, "failed to read channel")
	}

	var writeCloser io.WriteCloser
	if writeCloser, err = sess.StdinPipe(); err != nil {
		return errors.Wrap(err, "failed to write channel")
	}

	t.sshSession = sess
	t.reader = &traceReader{r: reader, trace: t.trace}
	t.writeCloser = &traceWriter{w: writeCloser, trace: t.trace}
	t.channelClosed = &atomic.Bool{}
	return nil
}

// closeChannel requires t.lock.
func (t *tImpl) closeChannel() (err error) {
	if t.channelClosed != nil {
		t.channelClosed.Store(true)
	}
	if t.writeCloser != nil {
		err = t.writeCloser.Close()
	}
	if t.sshSession != nil {
		if sessErr := t.sshSession.Close(); err == nil && sessErr != io.EOF {
			err = sessErr
		}
	}
	t.sshSession, t.reader, t.writeCloser = nil, nil, nil
	return err
}

// closeSession requires t.lock.
func (t *tImpl) closeSession() (err error) {
	if t.sshClient != nil {
		err = t.sshClient.Close()
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.sshClient, t.conn = nil, nil
	return err
}

// trackedConn records when the network connection fails, and applies the idle timeout as a deadline
// renewed by every read and write.
type trackedConn struct {
	net.Conn
	idleTimeout atomic.Int64
	closed      *atomic.Bool
}

func (c *trackedConn) Read(p []byte) (n int, err error) {
	c.extend()
	if n, err = c.Conn.Read(p); err != nil {
		c.closed.Store(true)
	}
	return
}

func (c *trackedConn) Write(p []byte) (n int, err error) {
	c.extend()
	if n, err = c.Conn.Write(p); err != nil {
		c.closed.Store(true)
	}
	return
}

func (c *trackedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

func (c *trackedConn) setIdleTimeout(d time.Duration) {
	c.idleTimeout.Store(int64(d))
	c.extend()
}

func (c *trackedConn) extend() {
	if d := time.Duration(c.idleTimeout.Load()); d > 0 {
		_ = c.Conn.SetDeadline(time.Now().Add(d))
	}
}

type traceReader struct {
	r     io.Reader
	trace *ClientTrace
}

func (tr *traceReader) Read(p []byte) (c int, err error) {
	tr.trace.ReadStart(p)
	defer func(begin time.Time) {
		tr.trace.ReadDone(p, c, err, time.Since(begin))
	}(time.Now())

	c, err = tr.r.Read(p)
	return
}

type traceWriter struct {
	w     io.WriteCloser
	trace *ClientTrace
}

func (tw *traceWriter) Write(p []byte) (c int, err error) {
	tw.trace.WriteStart(p)
	defer func(begin time.Time) {
		tw.trace.WriteDone(p, c, err, time.Since(begin))
	}(time.Now())

	c, err = tw.w.Write(p)
	return
}

func (tw *traceWriter) Close() (err error) {
	return tw.w.Close()
}
