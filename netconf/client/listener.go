package client

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/netcfg/ncclient/netconf/common"
	"github.com/netcfg/ncclient/netconf/rfc6242"
)

// listen routes the events of one stream generation until the reader stops.
func (si *sesImpl) listen(st *stream, events <-chan rfc6242.Event) {
	defer close(st.done)

	for ev := range events {
		switch ev.Type {
		case rfc6242.MessageReceived:
			if si.current.Load() == st {
				si.handleMessage(ev.Message)
			}

		case rfc6242.DeviceError:
			si.streamEnded(st, ev)
			err := classifyStreamError(si.target, ev.Err)
			si.trace.Error("Stream failed", si.target, err)
			si.recordError("", "", err)
			go si.teardown(st.gen)

		case rfc6242.DeviceUnregistered:
			si.streamEnded(st, ev)
			go si.teardown(st.gen)

		case rfc6242.ConnectionError:
			// The transport is left for ReconnectIfNeeded to recover before the next request.
			si.streamEnded(st, ev)
		}
	}
}

func (si *sesImpl) streamEnded(st *stream, ev rfc6242.Event) {
	st.alive.Store(false)
	si.trace.StreamEvent(si.target, ev.Type, ev.Err)
}

func (si *sesImpl) handleMessage(msg *rfc6242.RawMessage) {
	text := msg.Text

	var id string
	switch typ := common.Classify(text); typ {
	case common.TypeNotification:
		si.handleNotification(text)
		return
	case common.TypeHello:
		id = helloID
	case common.TypeReply:
		id = common.MessageID(text)
		if common.ContainsRPCError(text) {
			si.recordError(id, text, nil)
		}
	default:
		id = common.MessageID(text)
		si.trace.Error("Unexpected message", si.target, errors.Errorf("unrecognised root element: %.64s", text))
		si.recordError(id, text, nil)
	}

	if !si.table.complete(id, text) {
		si.trace.ReplyDropped(si.target, id)
	}
}

func (si *sesImpl) handleNotification(text string) {
	notification, err := common.ParseNotification(text)
	if err != nil {
		si.trace.Error("Failed to decode notification", si.target, err)
		si.recordError("", text, err)
		return
	}
	si.trace.NotificationReceived(notification)

	// Send notification to subscription channel, if it's defined and not full.
	si.subLock.Lock()
	defer si.subLock.Unlock()
	if si.subchan == nil {
		return
	}
	select {
	case si.subchan <- notification:
	default:
		si.notificationDropCount.Add(1)
		si.trace.NotificationDropped(notification)
	}
}

func classifyStreamError(target string, err error) error {
	switch errors.Cause(err) {
	case rfc6242.ErrMalformedChunk, rfc6242.ErrMessageTooLarge:
		return newError(KindMalformedFrame, target, "", err)
	}
	return err
}

func (si *sesImpl) recordError(id, text string, err error) {
	si.errLock.Lock()
	defer si.errLock.Unlock()
	si.errorReplies = append(si.errorReplies, ErrorReply{Time: time.Now(), MessageID: id, Text: text, Err: err})
}

// teardown disconnects the session after the stream of generation gen has ended, unless the session
// has moved on to a later stream.
func (si *sesImpl) teardown(gen uint64) {
	si.lcLock.Lock()
	defer si.lcLock.Unlock()

	if si.stream == nil || si.stream.gen != gen {
		return
	}
	si.disconnect(context.Background())
}
