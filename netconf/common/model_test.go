package common

import (
	"encoding/xml"
	"testing"

	assert "github.com/stretchr/testify/require"
)

func TestRPCErrorString(t *testing.T) {

	err := &RPCError{
		Severity: "Severity",
		Message:  "Message",
	}

	assert.Equal(t, "netconf rpc [Severity] 'Message'", err.Error())
}

func TestPeerSupportsChunkedFraming(t *testing.T) {
	assert.False(t, PeerSupportsChunkedFraming([]string{NetconfNS, NetconfNotifyNS, CapBase10}))
	assert.True(t, PeerSupportsChunkedFraming([]string{NetconfNS, NetconfNotifyNS, CapBase11}))
}

func TestHelloEncoding(t *testing.T) {
	b, err := xml.Marshal(&HelloMessage{Capabilities: DefaultCapabilities})
	assert.NoError(t, err)
	assert.Equal(t, `<hello xmlns="urn:ietf:params:xml:ns:netconf:base:1.0"><capabilities>`+
		`<capability>urn:ietf:params:netconf:base:1.0</capability>`+
		`<capability>urn:ietf:params:netconf:base:1.1</capability>`+
		`</capabilities></hello>`, string(b))
}

func TestReplyAccessors(t *testing.T) {
	reply, err := ParseReply(`<rpc-reply message-id="3"><ok/></rpc-reply>`)
	assert.NoError(t, err)
	assert.True(t, reply.IsOK())
	assert.Equal(t, "", reply.DataContent())

	reply, err = ParseReply(`<rpc-reply message-id="4"><data><top/></data></rpc-reply>`)
	assert.NoError(t, err)
	assert.False(t, reply.IsOK())
	assert.Equal(t, "<top/>", reply.DataContent())
}
