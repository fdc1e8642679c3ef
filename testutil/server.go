package testutil

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	assert "github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// SSHServer represents a test SSH Server
type SSHServer struct {
	listener net.Listener
	trace    *Trace

	connLock sync.Mutex
	conns    map[*ssh.ServerConn]struct{}
	accepted int32
}

// Handler is the interface that is implemented to handle an SSH channel.
type Handler interface {
	// Handle handles i/o to/from an SSH channel. The channel is closed when Handle returns.
	Handle(ch ssh.Channel)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ch ssh.Channel)

// Handle calls f(ch).
func (f HandlerFunc) Handle(ch ssh.Channel) {
	f(ch)
}

// HandlerFactory is a function that will deliver an Handler for a new channel on conn.
type HandlerFactory func(conn *ssh.ServerConn) Handler

// NewSSHServer delivers a new test SSH Server that echoes each line it receives, prefixed by "GOT:".
// The server implements password authentication with the given credentials.
func NewSSHServer(t assert.TestingT, uname, password string) *SSHServer {
	return NewSSHServerHandler(t, uname, password, func(*ssh.ServerConn) Handler {
		return HandlerFunc(echoHandler)
	})
}

// NewSSHServerHandler delivers a new test SSH Server listening on an ephemeral localhost port, with a custom
// channel handler.
func NewSSHServerHandler(t assert.TestingT, uname, password string, factory HandlerFactory) *SSHServer {
	cfg, err := PasswordConfig(uname, password)
	assert.NoError(t, err, "Failed to build server config")

	server, err := NewServer(context.Background(), "localhost", 0, cfg, factory)
	assert.NoError(t, err, "Listen failed")
	return server
}

// NewServer delivers a new SSH Server listening on address:port, handling each channel with a Handler
// delivered by factory.
func NewServer(ctx context.Context, address string, port int, cfg *ssh.ServerConfig, factory HandlerFactory) (server *SSHServer, err error) {
	server = &SSHServer{trace: ContextSSHTrace(ctx), conns: make(map[*ssh.ServerConn]struct{})}

	listenAddress := fmt.Sprintf("%s:%d", address, port)
	server.listener, err = net.Listen("tcp", listenAddress)
	server.trace.Listened(listenAddress, err)
	if err != nil {
		return nil, err
	}

	go server.acceptConnections(cfg, factory)

	return server, nil
}

// Port delivers the tcp port number on which the server is listening.
func (s *SSHServer) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Address delivers the host:port on which the server is listening.
func (s *SSHServer) Address() string {
	return s.listener.Addr().String()
}

// Accepted delivers the number of ssh connections accepted so far.
func (s *SSHServer) Accepted() int {
	return int(atomic.LoadInt32(&s.accepted))
}

// Close closes any resources used by the server.
func (s *SSHServer) Close() {
	_ = s.listener.Close()
	s.DropConnections()
}

// DropConnections closes every active ssh connection, leaving the server listening.
func (s *SSHServer) DropConnections() {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	for c := range s.conns {
		_ = c.Close()
		delete(s.conns, c)
	}
}

func (s *SSHServer) acceptConnections(config *ssh.ServerConfig, factory HandlerFactory) {
	s.trace.StartAccepting()
	for {
		nConn, err := s.listener.Accept()
		s.trace.Accepted(nConn, err)
		if err != nil {
			return
		}
		go s.serveConnection(nConn, config, factory)
	}
}

func (s *SSHServer) serveConnection(nConn net.Conn, config *ssh.ServerConfig, factory HandlerFactory) {
	svrconn, chch, reqch, err := ssh.NewServerConn(nConn, config)
	s.trace.NewServerConn(nConn, err)
	if err != nil {
		_ = nConn.Close()
		return
	}
	atomic.AddInt32(&s.accepted, 1)
	s.track(svrconn, true)
	defer s.track(svrconn, false)

	go ssh.DiscardRequests(reqch)

	// Service the incoming Channel channel.
	for newChannel := range chch {
		dataChan, requests, err := newChannel.Accept()
		s.trace.SSHChannelAccept(nConn, err)
		if err != nil {
			continue
		}

		// Handle the "subsystem" request.
		go func(in <-chan *ssh.Request) {
			for req := range in {
				err := req.Reply(req.Type == "subsystem", nil)
				s.trace.SubsystemRequestReply(err)
			}
		}(requests)

		go func(h Handler) {
			defer dataChan.Close()
			h.Handle(dataChan)
		}(factory(svrconn))
	}
}

func (s *SSHServer) track(c *ssh.ServerConn, active bool) {
	s.connLock.Lock()
	defer s.connLock.Unlock()
	if active {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func echoHandler(ch ssh.Channel) {
	chReader := bufio.NewReader(ch)
	chWriter := bufio.NewWriter(ch)
	for {
		input, err := chReader.ReadString('\n')
		if err != nil {
			return
		}
		if _, err = chWriter.WriteString(fmt.Sprintf("GOT:%s", input)); err != nil {
			return
		}
		_ = chWriter.Flush()
	}
}
