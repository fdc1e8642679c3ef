package client

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	assert "github.com/stretchr/testify/require"
)

func TestCorrelationTable(t *testing.T) {
	ct := newCorrelationTable()
	p1 := newPendingRequest("1", "<a/>")
	p2 := newPendingRequest("2", "<b/>")
	ct.insert(p1)
	ct.insert(p2)
	assert.Equal(t, 2, ct.len())

	assert.True(t, ct.complete("2", "reply-2"))
	assert.False(t, ct.complete("2", "again"), "a completed request is removed")
	assert.False(t, ct.complete("3", "unknown"))

	reply, err := p2.Result()
	assert.NoError(t, err)
	assert.Equal(t, "reply-2", reply)

	assert.Equal(t, 1, ct.clear())
	assert.Equal(t, 0, ct.len())
	select {
	case <-p1.Done():
		assert.Fail(t, "abandoned request should not complete")
	default:
	}
}

func TestPendingRequestAssignedOnce(t *testing.T) {
	p := newPendingRequest("7", "<get/>")
	assert.Equal(t, "7", p.ID())
	assert.Equal(t, "<get/>", p.Request())
	assert.False(t, p.Created().IsZero())

	assert.True(t, p.complete("first"))
	assert.False(t, p.fail(ErrWrite))

	reply, err := p.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "first", reply)
}

func TestPendingRequestWaitCancelled(t *testing.T) {
	p := newPendingRequest("1", "<get/>")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
}

func TestSendGateFraming(t *testing.T) {
	var out bytes.Buffer
	g := newSendGate(&out, newCorrelationTable(), "test")

	p := g.send("<rpc/>", "1")
	assert.Equal(t, 1, g.table.len())
	select {
	case <-p.Done():
		assert.Fail(t, "request should be pending")
	default:
	}
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+"\n<rpc/>]]>]]>", out.String())

	out.Reset()
	g.setFraming(true)
	assert.NoError(t, g.sendOnly("<rpc/>"))
	assert.Equal(t, "\n#39\n"+`<?xml version="1.0" encoding="UTF-8"?>`+"\n\n#6\n<rpc/>\n##\n", out.String())
}

type failingWriter struct {
	lock sync.Mutex
	fail bool
	out  bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.fail {
		return 0, errInjectedWrite
	}
	return w.out.Write(p)
}

func TestSendGateWriteFailure(t *testing.T) {
	w := &failingWriter{fail: true}
	g := newSendGate(w, newCorrelationTable(), "test")

	p := g.send("<rpc/>", "1")
	<-p.Done()
	_, err := p.Result()
	assert.ErrorIs(t, err, ErrWrite)

	// Nothing of the failed message is sent once the writer recovers.
	w.fail = false
	assert.NoError(t, g.sendOnly("<ok/>"))
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+"\n<ok/>]]>]]>", w.out.String())
}
