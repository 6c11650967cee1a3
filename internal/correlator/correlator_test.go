package correlator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu     sync.Mutex
	frames [][]byte
	fail   bool
}

func (s *captureSender) Send(ctx context.Context, frame []byte) error {
	if s.fail {
		return assertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

var assertErr = &sendError{}

type sendError struct{}

func (e *sendError) Error() string { return "boom" }

func (s *captureSender) lastRequestID(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.frames)
	msgs := jsonrpc.Decode(s.frames[len(s.frames)-1])
	require.Len(t, msgs, 1)
	return msgs[0].ID.String()
}

func TestCorrelatorResponseDelivery(t *testing.T) {
	sender := &captureSender{}
	c := New(sender, nil)

	done := make(chan struct{})
	var result json.RawMessage
	var werr *jsonrpc.WireError
	go func() {
		result, werr = c.SendRequest(context.Background(), "ping", nil, 0)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	id := sender.lastRequestID(t)
	c.HandleResponse(id, json.RawMessage(`{"ok":true}`))

	<-done
	require.Nil(t, werr)
	assert.JSONEq(t, `{"ok":true}`, string(result))
}

func TestCorrelatorUniqueDelivery(t *testing.T) {
	sender := &captureSender{}
	c := New(sender, nil)

	done := make(chan struct{})
	go func() {
		c.SendRequest(context.Background(), "ping", nil, 0)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	id := sender.lastRequestID(t)

	c.HandleResponse(id, json.RawMessage(`1`))
	<-done

	// A second response for the same id must be dropped, not panic or
	// deliver anywhere.
	c.HandleResponse(id, json.RawMessage(`2`))
}

func TestCorrelatorCancel(t *testing.T) {
	sender := &captureSender{}
	c := New(sender, nil)

	done := make(chan struct{})
	var werr *jsonrpc.WireError
	go func() {
		_, werr = c.SendRequest(context.Background(), "tools/call", nil, 0)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	id := sender.lastRequestID(t)

	c.Cancel(context.Background(), id, "user abort")
	<-done

	require.NotNil(t, werr)
	assert.Equal(t, jsonrpc.CodeRequestCancelled, werr.Code)
}

func TestCorrelatorTimeoutEmitsCancelled(t *testing.T) {
	sender := &captureSender{}
	c := New(sender, nil)

	start := time.Now()
	_, werr := c.SendRequest(context.Background(), "slow", nil, 10*time.Millisecond)
	require.NotNil(t, werr)
	assert.Equal(t, jsonrpc.CodeRequestTimeout, werr.Code)
	assert.True(t, time.Since(start) >= 10*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	var sawCancelled bool
	for _, f := range sender.frames {
		msgs := jsonrpc.Decode(f)
		for _, m := range msgs {
			if m.Method == "notifications/cancelled" {
				sawCancelled = true
			}
		}
	}
	assert.True(t, sawCancelled)
}

func TestCorrelatorCancelAll(t *testing.T) {
	sender := &captureSender{}
	c := New(sender, nil)

	var wg sync.WaitGroup
	errs := make([]*jsonrpc.WireError, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.SendRequest(context.Background(), "ping", nil, 0)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	c.CancelAll("client closed")
	wg.Wait()

	for _, e := range errs {
		require.NotNil(t, e)
		assert.Equal(t, jsonrpc.CodeRequestCancelled, e.Code)
	}
}
