package common

import (
	"encoding/xml"
	"fmt"
)

// Defines structs representing netconf messages and notifications.

// Request represents the body of a Netconf RPC request.
// A string is sent verbatim (wrapped in an rpc element unless it already is one); any other value
// is marshalled as the content of the rpc element.
type Request interface{}

// HelloMessage defines the message sent/received during session negotiation.
type HelloMessage struct {
	XMLName      xml.Name `xml:"urn:ietf:params:xml:ns:netconf:base:1.0 hello"`
	Capabilities []string `xml:"capabilities>capability"`
	SessionID    string   `xml:"session-id,omitempty"`
}

// RPCMessage defines an rpc request message
type RPCMessage struct {
	XMLName   xml.Name `xml:"urn:ietf:params:xml:ns:netconf:base:1.0 rpc"`
	MessageID string   `xml:"message-id,attr"`
	*Union
}

// RPCReply defines an rpc reply message
type RPCReply struct {
	XMLName   xml.Name   `xml:"rpc-reply"`
	Errors    []RPCError `xml:"rpc-error,omitempty"`
	Data      string     `xml:",innerxml"`
	Ok        *struct{}  `xml:"ok"`
	Content   *Content   `xml:"data"`
	RawReply  string     `xml:"-"`
	MessageID string     `xml:"message-id,attr"`
}

// Content holds the body of the data element of a reply.
type Content struct {
	Body string `xml:",innerxml"`
}

// IsOK reports whether the reply carried an ok element.
func (r *RPCReply) IsOK() bool {
	return r.Ok != nil
}

// DataContent delivers the body of the data element, or an empty string if there was none.
func (r *RPCReply) DataContent() string {
	if r.Content == nil {
		return ""
	}
	return r.Content.Body
}

// RPCError defines an error reply to a RPC request
type RPCError struct {
	Type     string `xml:"error-type"`
	Tag      string `xml:"error-tag"`
	Severity string `xml:"error-severity"`
	Path     string `xml:"error-path"`
	Message  string `xml:"error-message"`
	Info     string `xml:",innerxml"`
}

// Error generates a string representation of the RPC error
func (re *RPCError) Error() string {
	return fmt.Sprintf("netconf rpc [%s] '%s'", re.Severity, re.Message)
}

// Notification defines a specific notification event.
type Notification struct {
	XMLName   xml.Name
	EventTime string
	Event     string `xml:",innerxml"`
}

// NotificationMessage defines the notification message sent from the server.
type NotificationMessage struct {
	XMLName   xml.Name     // `xml:"notification"`
	EventTime string       `xml:"eventTime"`
	Event     Notification `xml:",any"`
}

// Union carries the body of an rpc request, either as raw xml or as a value to be marshalled.
type Union struct {
	ValueStr interface{}
	ValueXML string `xml:",innerxml"`
}

// GetUnion wraps a request body.
func GetUnion(s interface{}) *Union {
	switch request := s.(type) {
	case string:
		return &Union{ValueXML: request}
	default:
		return &Union{ValueStr: request}
	}
}

// DefaultCapabilities sets the default capabilities of the client library
var DefaultCapabilities = []string{
	CapBase10,
	CapBase11,
}

// NoChunkedCodecCapabilities omits chunked codec capability.
var NoChunkedCodecCapabilities = []string{
	CapBase10,
}

// Define xml names for different netconf messages.
var (
	NameHello        = xml.Name{Space: NetconfNS, Local: "hello"}
	NameRPC          = xml.Name{Space: NetconfNS, Local: "rpc"}
	NameRPCReply     = xml.Name{Space: NetconfNS, Local: "rpc-reply"}
	NameNotification = xml.Name{Space: NetconfNotifyNS, Local: "notification"}
)

// Define netconf URNs.
const (
	NetconfNS          = "urn:ietf:params:xml:ns:netconf:base:1.0"
	NetconfNotifyNS    = "urn:ietf:params:xml:ns:netconf:notification:1.0"
	CapBase10          = "urn:ietf:params:netconf:base:1.0"
	CapBase11          = "urn:ietf:params:netconf:base:1.1"
	CapXpath           = "urn:ietf:params:netconf:capability:xpath:1.0"
	CapCandidate       = "urn:ietf:params:netconf:capability:candidate:1.0"
	CapConfirmedCommit = "urn:ietf:params:netconf:capability:confirmed-commit:1.1"
	CapValidate        = "urn:ietf:params:netconf:capability:validate:1.1"
	CapNotification    = "urn:ietf:params:netconf:capability:notification:1.0"
)

// PeerSupportsChunkedFraming returns true if capability list indicates support for chunked framing.
func PeerSupportsChunkedFraming(caps []string) bool {
	for _, capability := range caps {
		if capability == CapBase11 {
			return true
		}
	}
	return false
}
