package testserver

import (
	"fmt"
	"runtime"
	"sync"

	assert "github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/netcfg/ncclient/testutil"
)

// Defines credentials used for test sessions.
const (
	TestUserName = "testUser"
	TestPassword = "testPassword"
)

// TestNCServer represents a Netconf Server that can be used for 'on-board' testing.
// It encapsulates a transport connection to an SSH server, and a netconf session handler that will
// be invoked to handle netconf messages.
type TestNCServer struct {
	*testutil.SSHServer

	lock            sync.Mutex
	sessionHandlers map[uint64]*SessionHandler
	reqHandlers     []RequestHandler
	caps            []string
	rawHello        string
	nextSid         uint64
	tctx            assert.TestingT
}

// NewTestNetconfServer creates a new TestNCServer that will accept Netconf localhost connections on an ephemeral port (available
// via Port(), with credentials defined by TestUserName and TestPassword.
// tctx will be used for handling failures; if the supplied value is nil, a default test context will be used.
// The behaviour of the Netconf session handler can be configured using the WithCapabilities and
// WithRequestHandler methods.
func NewTestNetconfServer(tctx assert.TestingT) *TestNCServer {

	ncs := &TestNCServer{sessionHandlers: make(map[uint64]*SessionHandler), caps: DefaultCapabilities}

	if tctx == nil {
		// Default test context to built-in implementation.
		tctx = ncs
	}
	ncs.tctx = tctx

	ncs.SSHServer = testutil.NewSSHServerHandler(tctx, TestUserName, TestPassword, ncs.newFactory())

	return ncs
}

func (ncs *TestNCServer) newFactory() testutil.HandlerFactory {
	return func(*ssh.ServerConn) testutil.Handler {
		ncs.lock.Lock()
		defer ncs.lock.Unlock()

		ncs.nextSid++
		sess := newSessionHandler(ncs.tctx, ncs.nextSid)
		sess.capabilities = ncs.caps
		sess.rawHello = ncs.rawHello
		sess.reqHandlers = append([]RequestHandler(nil), ncs.reqHandlers...)
		ncs.sessionHandlers[ncs.nextSid] = sess
		return sess
	}
}

// LastHandler delivers the handler of the most recently opened session.
func (ncs *TestNCServer) LastHandler() *SessionHandler {
	ncs.lock.Lock()
	defer ncs.lock.Unlock()
	return ncs.sessionHandlers[ncs.nextSid]
}

// SessionCount delivers the number of sessions opened so far.
func (ncs *TestNCServer) SessionCount() int {
	ncs.lock.Lock()
	defer ncs.lock.Unlock()
	return int(ncs.nextSid)
}

// WithRequestHandler adds a request handler to the queue used by new sessions. Each request is handled by
// the next handler in the queue; once the queue is empty, requests are handled by EchoRequestHandler.
func (ncs *TestNCServer) WithRequestHandler(rh RequestHandler) *TestNCServer {
	ncs.lock.Lock()
	defer ncs.lock.Unlock()
	ncs.reqHandlers = append(ncs.reqHandlers, rh)
	return ncs
}

// WithCapabilities define the capabilities that the server will advertise when a netconf client connects.
func (ncs *TestNCServer) WithCapabilities(caps []string) *TestNCServer {
	ncs.lock.Lock()
	defer ncs.lock.Unlock()
	ncs.caps = caps
	return ncs
}

// WithRawHello replaces the hello message sent to connecting clients with text, which is sent
// with end-of-message framing. An empty text suppresses the hello altogether.
func (ncs *TestNCServer) WithRawHello(text string) *TestNCServer {
	ncs.lock.Lock()
	defer ncs.lock.Unlock()
	if text == "" {
		text = suppressHello
	}
	ncs.rawHello = text
	return ncs
}

// Close closes any active transport to the test server and prevents subsequent connections.
func (ncs *TestNCServer) Close() {
	ncs.lock.Lock()
	for _, v := range ncs.sessionHandlers {
		v.Close()
	}
	ncs.lock.Unlock()
	ncs.SSHServer.Close()
}

// Errorf provides testing.T compatibility if a test context is not provided when the test server is
// created.
func (ncs *TestNCServer) Errorf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// FailNow provides testing.T compatibility if a test context is not provided when the test server is
// created.
func (ncs *TestNCServer) FailNow() {
	runtime.Goexit()
}

// SessionHandler delivers the netconf session handler associated with the specified session id.
func (ncs *TestNCServer) SessionHandler(id uint64) *SessionHandler {
	ncs.lock.Lock()
	sh, ok := ncs.sessionHandlers[id]
	ncs.lock.Unlock()
	if !ok {
		ncs.tctx.Errorf("Failed to get handler for session %d", id)
		ncs.tctx.FailNow()
	}
	return sh
}
