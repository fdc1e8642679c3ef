// Copyright 2018 Andrew Fort
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package rfc6242

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
)

// Framing identifies the grammar that delimited a message.
type Framing int

// Framing values.
const (
	EndOfMessage Framing = iota
	Chunked
)

func (f Framing) String() string {
	if f == Chunked {
		return "chunked"
	}
	return "end-of-message"
}

// RawMessage is the text of one complete message received from the peer.
type RawMessage struct {
	Text    string
	Framing Framing
}

// EventType classifies the events emitted by a StreamReader.
type EventType int

// Event types.
const (
	// MessageReceived carries a complete message, framing removed.
	MessageReceived EventType = iota
	// DeviceError reports a read failure or a framing violation. The reader stops after it.
	DeviceError
	// DeviceUnregistered reports a bare end-of-message token: the peer ended the session.
	DeviceUnregistered
	// ConnectionError reports end of stream. The reader stops after it.
	ConnectionError
)

var eventNames = [...]string{"message-received", "device-error", "device-unregistered", "connection-error"}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[t]
}

// Event is emitted by a StreamReader.
type Event struct {
	Type    EventType
	Message *RawMessage
	Err     error
}

// ErrMessageTooLarge is reported when a message exceeds the reader's size limit.
var ErrMessageTooLarge = errors.New("message exceeds maximum size")

// ReaderOption configures a StreamReader.
type ReaderOption func(*StreamReader)

// WithMaxMessageSize bounds the size of a single message, framing included.
func WithMaxMessageSize(n int) ReaderOption {
	return func(sr *StreamReader) {
		sr.maxSize = n
	}
}

// StreamReader splits a transport byte stream into messages, using the end-of-message and
// end-of-chunks recogniser defined by Next.
//
// StreamReader is not safe for concurrent use; Run is expected to be called once, on a
// goroutine dedicated to the stream.
type StreamReader struct {
	r       *bufio.Reader
	maxSize int
	buf     bytes.Buffer
}

// NewStreamReader creates a StreamReader consuming input.
func NewStreamReader(input io.Reader, opts ...ReaderOption) *StreamReader {
	sr := &StreamReader{r: bufio.NewReaderSize(input, defaultReaderBufferSize), maxSize: defaultMaxMessageSize}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

// Run reads the stream until it ends, a framing error occurs, the peer unregisters or ctx is done,
// delivering events to out. out is closed when Run returns.
func (sr *StreamReader) Run(ctx context.Context, out chan<- Event) {
	defer close(out)

	state := NoMatch
	for {
		c, err := sr.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				sr.emit(ctx, out, Event{Type: ConnectionError, Err: err})
			} else {
				sr.emit(ctx, out, Event{Type: DeviceError, Err: errors.Wrap(err, "transport read failed")})
			}
			return
		}

		state = Next(state, c)
		sr.buf.WriteByte(c)

		switch state {
		case EndPattern:
			if !sr.endOfMessage(ctx, out) {
				return
			}
			state = NoMatch
		case EndChunkedPattern:
			if !sr.endOfChunks(ctx, out) {
				return
			}
			state = NoMatch
		default:
			if sr.maxSize > 0 && sr.buf.Len() > sr.maxSize {
				sr.emit(ctx, out, Event{Type: DeviceError, Err: errors.Wrapf(ErrMessageTooLarge, "limit %d bytes", sr.maxSize)})
				return
			}
		}
	}
}

func (sr *StreamReader) endOfMessage(ctx context.Context, out chan<- Event) bool {
	text := sr.buf.Bytes()[:sr.buf.Len()-len(tokenEOM)]
	if len(bytes.TrimSpace(text)) == 0 {
		sr.emit(ctx, out, Event{Type: DeviceUnregistered})
		return false
	}
	msg := &RawMessage{Text: string(text), Framing: EndOfMessage}
	sr.buf.Reset()
	return sr.emit(ctx, out, Event{Type: MessageReceived, Message: msg})
}

func (sr *StreamReader) endOfChunks(ctx context.Context, out chan<- Event) bool {
	data, err := DecodeChunked(sr.buf.Bytes())
	if err != nil {
		sr.emit(ctx, out, Event{Type: DeviceError, Err: err})
		return false
	}
	msg := &RawMessage{Text: string(data), Framing: Chunked}
	sr.buf.Reset()
	return sr.emit(ctx, out, Event{Type: MessageReceived, Message: msg})
}

func (sr *StreamReader) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

var tokenEOM = []byte("]]>]]>")

const (
	// defaultReaderBufferSize is the default read buffer capacity size.
	defaultReaderBufferSize = 65536
	// defaultMaxMessageSize bounds a single message unless overridden.
	defaultMaxMessageSize = 64 * 1024 * 1024
)
