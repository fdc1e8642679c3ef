package common

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Helpers that build outgoing messages and inspect incoming ones as text.

// MessageType classifies a message received from the server.
type MessageType int

// Message types.
const (
	TypeUnknown MessageType = iota
	TypeHello
	TypeReply
	TypeNotification
)

func (t MessageType) String() string {
	switch t {
	case TypeHello:
		return "hello"
	case TypeReply:
		return "rpc-reply"
	case TypeNotification:
		return "notification"
	}
	return "unknown"
}

var (
	// ErrNoSessionID is returned when a hello message carries no session-id element.
	ErrNoSessionID = errors.New("hello message has no session-id")
	// ErrNotReply is returned when a message is not a well-formed rpc-reply.
	ErrNotReply = errors.New("message is not an rpc-reply")
)

var (
	reSessionID  = regexp.MustCompile(`<(?:[\w.-]+:)?session-id>\s*([^<\s]+)\s*</(?:[\w.-]+:)?session-id>`)
	reCapability = regexp.MustCompile(`<(?:[\w.-]+:)?capability>\s*([^<]+?)\s*</(?:[\w.-]+:)?capability>`)
	reMessageID  = regexp.MustCompile(`message-id\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	reRPCError   = regexp.MustCompile(`<(?:[\w.-]+:)?rpc-error[\s>/]`)
	reRPCStart   = regexp.MustCompile(`^<(?:[\w.-]+:)?rpc[\s>/]`)
)

// BuildRPC delivers the text of an rpc request carrying the message id.
//
// A string request that is already an rpc element has its message-id set to id, replacing any value the
// caller supplied; any other string is wrapped in an rpc element. Other requests are marshalled.
func BuildRPC(id string, req Request) (string, error) {
	if s, ok := req.(string); ok {
		s = stripDeclaration(s)
		if reRPCStart.MatchString(s) {
			return StampMessageID(s, id), nil
		}
		return fmt.Sprintf(`<rpc message-id="%s" xmlns="%s">%s</rpc>`, id, NetconfNS, s), nil
	}

	b, err := xml.Marshal(&RPCMessage{MessageID: id, Union: GetUnion(req)})
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal request")
	}
	return string(b), nil
}

// StampMessageID sets the message-id attribute of the root element of msg to id.
func StampMessageID(msg, id string) string {
	end := strings.IndexByte(msg, '>')
	if end < 0 {
		return msg
	}
	tag, rest := msg[:end], msg[end:]
	if loc := reMessageID.FindStringIndex(tag); loc != nil {
		return tag[:loc[0]] + fmt.Sprintf(`message-id="%s"`, id) + tag[loc[1]:] + rest
	}

	name := strings.IndexAny(tag, " \t\r\n/")
	if name < 0 {
		name = len(tag)
	}
	return tag[:name] + fmt.Sprintf(` message-id="%s"`, id) + tag[name:] + rest
}

// MessageID extracts the message-id attribute of the root element of msg. When msg cannot be parsed,
// the first message-id attribute found in the text is used.
func MessageID(msg string) string {
	if root, err := rootElement(msg); err == nil {
		for _, attr := range root.Attr {
			if attr.Name.Local == "message-id" {
				return attr.Value
			}
		}
		return ""
	}
	if m := reMessageID.FindStringSubmatch(msg); m != nil {
		return m[1] + m[2]
	}
	return ""
}

// Classify reports the type of msg from its root element name, falling back to a text match
// when the message cannot be parsed.
func Classify(msg string) MessageType {
	if root, err := rootElement(msg); err == nil {
		return typeOf(root.Name.Local)
	}
	switch {
	case strings.Contains(msg, "rpc-reply"):
		return TypeReply
	case strings.Contains(msg, "hello"):
		return TypeHello
	case strings.Contains(msg, "notification"):
		return TypeNotification
	}
	return TypeUnknown
}

func typeOf(local string) MessageType {
	switch local {
	case "hello":
		return TypeHello
	case "rpc-reply":
		return TypeReply
	case "notification":
		return TypeNotification
	}
	return TypeUnknown
}

// ParseHello extracts the session id and capabilities from a hello message.
func ParseHello(msg string) (*HelloMessage, error) {
	hello := &HelloMessage{}
	for _, m := range reCapability.FindAllStringSubmatch(msg, -1) {
		hello.Capabilities = append(hello.Capabilities, m[1])
	}

	m := reSessionID.FindStringSubmatch(msg)
	if m == nil {
		return hello, ErrNoSessionID
	}
	hello.SessionID = m[1]
	return hello, nil
}

// ParseReply decodes msg, which must be an rpc-reply.
func ParseReply(msg string) (*RPCReply, error) {
	reply := &RPCReply{}
	if err := xml.Unmarshal([]byte(msg), reply); err != nil {
		return nil, errors.Wrap(ErrNotReply, err.Error())
	}
	reply.RawReply = msg
	return reply, nil
}

// ContainsRPCError reports whether msg carries an rpc-error element.
func ContainsRPCError(msg string) bool {
	return reRPCError.MatchString(msg)
}

// ParseNotification decodes a notification message.
func ParseNotification(msg string) (*Notification, error) {
	nmsg := &NotificationMessage{}
	if err := xml.Unmarshal([]byte(msg), nmsg); err != nil {
		return nil, errors.Wrap(err, "failed to decode notification")
	}
	event := fmt.Sprintf(`<%s xmlns="%s">%s</%s>`,
		nmsg.Event.XMLName.Local, nmsg.Event.XMLName.Space, nmsg.Event.Event, nmsg.Event.XMLName.Local)
	return &Notification{XMLName: nmsg.Event.XMLName, EventTime: nmsg.EventTime, Event: event}, nil
}

// FirstError returns the first rpc-error of severity error, if any.
func FirstError(r *RPCReply) *RPCError {
	for i := range r.Errors {
		if r.Errors[i].Severity == "error" {
			return &r.Errors[i]
		}
	}
	return nil
}

func rootElement(msg string) (xml.StartElement, error) {
	d := xml.NewDecoder(strings.NewReader(msg))
	for {
		tok, err := d.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func stripDeclaration(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<?xml") {
		if end := strings.Index(s, "?>"); end >= 0 {
			s = strings.TrimSpace(s[end+2:])
		}
	}
	return s
}
