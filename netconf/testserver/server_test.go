package testserver_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	assert "github.com/stretchr/testify/require"

	"github.com/netcfg/ncclient/netconf/client"
	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/testserver"
	"github.com/netcfg/ncclient/testutil"
)

const req = `<get>
   <filter type="subtree">
       <physical-ports xmlns="http://www.lumentum.com/lumentum-ote-port" xmlns:loteeth="http://www.lumentum.com/lumentum-ote-port-ethernet">
       </physical-ports>
   </filter>
</get>`

func TestMultipleTestServersWithoutChunkedEncoding(t *testing.T) {
	runServers(t, []string{common.CapBase10}, 5, 50)
}

func TestMultipleTestServersWithChunkedEncoding(t *testing.T) {
	runServers(t, testserver.DefaultCapabilities, 5, 50)
}

func TestMultipleSessions(t *testing.T) {

	ts := testserver.NewTestNetconfServer(t)
	defer ts.Close()

	s1 := newSession(t, ts)
	defer s1.Close()
	s2 := newSession(t, ts)
	defer s2.Close()

	assert.Equal(t, 2, ts.SessionCount())
	assert.Equal(t, "1", s1.ID())
	assert.Equal(t, "2", s2.ID())
	assert.Equal(t, uint64(2), ts.LastHandler().SessionID())
}

func TestClientHelloIsRecorded(t *testing.T) {

	ts := testserver.NewTestNetconfServer(t)
	defer ts.Close()

	s := newSession(t, ts)
	defer s.Close()

	sh := ts.SessionHandler(1)
	assert.True(t, sh.WaitStart(5*time.Second))
	assert.Contains(t, sh.ClientHello().Capabilities, common.CapBase11)
}

func TestRequestHandlerQueue(t *testing.T) {

	ts := testserver.NewTestNetconfServer(t).
		WithRequestHandler(testserver.FailingRequestHandler).
		WithRequestHandler(testserver.OkRequestHandler).
		WithRequestHandler(testserver.DataRequestHandler("<top/>"))
	defer ts.Close()

	s := newSession(t, ts)
	defer s.Close()

	ex, err := s.Execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, ex.Reply, "<error-message>oops</error-message>")

	ex, err = s.Execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, ex.Reply, "<ok></ok>")

	ex, err = s.Execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, ex.Reply, "<data><top/></data>")

	// Queue exhausted: requests are echoed.
	ex, err = s.Execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, ex.Reply, "physical-ports")

	sh := ts.LastHandler()
	assert.Equal(t, 4, sh.ReqCount())
	first := sh.NextRequest(time.Second)
	assert.NotNil(t, first)
	assert.Equal(t, "get", first.Request.XMLName.Local)
	assert.Equal(t, ex.MessageID, fmt.Sprint(4))
}

func TestCloseOnceRequestHandler(t *testing.T) {
	ts := testserver.NewTestNetconfServer(t).WithRequestHandler(testserver.CloseOnceRequestHandler())
	defer ts.Close()

	sshConfig := testutil.ClientConfig(testserver.TestUserName, testserver.TestPassword)
	first, err := client.NewRPCSessionWithConfig(context.Background(), sshConfig, fmt.Sprintf("localhost:%d", ts.Port()),
		&client.Config{ReplyTimeout: 300 * time.Millisecond})
	assert.NoError(t, err)
	defer first.Close()

	_, err = first.Execute(context.Background(), req)
	assert.Error(t, err, "First request should find its channel closed")

	second := newSession(t, ts)
	defer second.Close()

	ex, err := second.Execute(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, ex.Reply, "physical-ports", "Later sessions should be echoed")
}

func TestNotifications(t *testing.T) {

	ts := testserver.NewTestNetconfServer(t)
	defer ts.Close()

	s := newSession(t, ts)
	defer s.Close()

	nchan := make(chan *common.Notification, 4)
	_, err := s.Subscribe(context.Background(), `<create-subscription xmlns="urn:ietf:params:xml:ns:netconf:notification:1.0"/>`, nchan)
	assert.NoError(t, err)

	ts.LastHandler().SendNotification(`<netconf-config-change xmlns="urn:ietf:params:xml:ns:yang:ietf-netconf-notifications"/>`)

	select {
	case n := <-nchan:
		assert.Equal(t, "netconf-config-change", n.XMLName.Local)
	case <-time.After(5 * time.Second):
		assert.Fail(t, "notification not received")
	}
}

func TestCloseSessionIsAcknowledged(t *testing.T) {

	ts := testserver.NewTestNetconfServer(t)
	defer ts.Close()

	s := newSession(t, ts)
	assert.NoError(t, s.Disconnect(context.Background()))
	assert.Equal(t, client.Disconnected, s.State())

	sh := ts.LastHandler()
	assert.Equal(t, 1, sh.ReqCount())
	assert.Equal(t, "close-session", sh.NextRequest(time.Second).Request.XMLName.Local)
}

func runServers(t *testing.T, caps []string, svrCount, reqCount int) {

	ts := make([]*testserver.TestNCServer, svrCount)
	for i := range ts {
		ts[i] = testserver.NewTestNetconfServer(t).WithCapabilities(caps)
	}
	defer func() {
		for _, s := range ts {
			s.Close()
		}
	}()

	ss := make([]client.Session, svrCount)
	for i := range ss {
		ss[i] = newSession(t, ts[i])
	}
	defer func() {
		for _, s := range ss {
			s.Close()
		}
	}()

	wg := &sync.WaitGroup{}
	errs := make(chan error, svrCount*reqCount)
	for i := range ss {
		wg.Add(1)
		go func(s client.Session) {
			defer wg.Done()
			for r := 0; r < reqCount; r++ {
				if _, err := s.Execute(context.Background(), req); err != nil {
					errs <- err
				}
			}
		}(ss[i])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	for i := range ts {
		assert.Equal(t, reqCount, ts[i].LastHandler().ReqCount())
	}
}

func newSession(t *testing.T, ts *testserver.TestNCServer) client.Session {
	sshConfig := testutil.ClientConfig(testserver.TestUserName, testserver.TestPassword)
	s, err := client.NewRPCSession(context.Background(), sshConfig, fmt.Sprintf("localhost:%d", ts.Port()))
	assert.NoError(t, err, "Failed to create session")
	return s
}
