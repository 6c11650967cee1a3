// Package correlator implements the per-transport request/response
// correlator from spec.md §4.7: a request_id -> waiter map with timeout
// and cancellation handling, grounded on the teacher's
// dkmcp/internal/client/client.go CallTool/initialize pattern of posting a
// request then blocking on a channel keyed by the outstanding call,
// generalized here to arbitrary concurrently in-flight requests instead of
// one hardcoded id.
package correlator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fenwicklabs/mcprt/internal/ids"
	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
)

// gracePeriod protects against the race where a timeout and a genuine
// response arrive at nearly the same instant; the correlator waits this
// long past the caller's nominal deadline before declaring a timeout, per
// spec.md §4.7 ("A small grace period (>=1s)...").
const gracePeriod = 1 * time.Second

// Sender abstracts the transport's outbound framing so the correlator
// doesn't need to know about any particular transport's connection type.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
}

// Outcome is what a waiter is resolved with.
type Outcome struct {
	Result    json.RawMessage
	Err       *jsonrpc.WireError
	Cancelled bool
	Timeout   bool
	Reason    string
}

type pendingEntry struct {
	method   string
	resultCh chan Outcome
	timer    *time.Timer
}

// Correlator tracks one transport's outstanding outbound requests.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*pendingEntry

	gen    *ids.Generator
	sender Sender
	logger *slog.Logger
}

func New(sender Sender, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		pending: map[string]*pendingEntry{},
		gen:     ids.NewGenerator(),
		sender:  sender,
		logger:  logger,
	}
}

// SendRequest allocates an id, sends the request, and blocks until a
// response, error, cancellation, or the timeout (plus grace period)
// elapses.
func (c *Correlator) SendRequest(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, *jsonrpc.WireError) {
	id := jsonrpc.NewStringID(c.gen.NextRequestID())
	frame, err := jsonrpc.EncodeRequest(method, params, id)
	if err != nil {
		return nil, jsonrpc.InternalError(fmt.Sprintf("encode request: %v", err))
	}

	entry := &pendingEntry{method: method, resultCh: make(chan Outcome, 1)}

	c.mu.Lock()
	c.pending[id.String()] = entry
	c.mu.Unlock()

	if timeout > 0 {
		entry.timer = time.AfterFunc(timeout+gracePeriod, func() {
			c.timeoutRequest(ctx, id.String())
		})
	}

	if sendErr := c.sender.Send(ctx, frame); sendErr != nil {
		c.remove(id.String())
		return nil, jsonrpc.SendFailure(sendErr.Error())
	}

	select {
	case outcome := <-entry.resultCh:
		if outcome.Timeout {
			return nil, jsonrpc.RequestTimeout()
		}
		if outcome.Cancelled {
			return nil, jsonrpc.RequestCancelled(outcome.Reason)
		}
		if outcome.Err != nil {
			return nil, outcome.Err
		}
		return outcome.Result, nil
	case <-ctx.Done():
		c.remove(id.String())
		return nil, jsonrpc.InternalError("context cancelled")
	}
}

func (c *Correlator) remove(id string) *pendingEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	if e.timer != nil {
		e.timer.Stop()
	}
	return e
}

// HandleResponse delivers a successful result to the waiter for id, if one
// is still pending. If absent, the frame is logged and dropped (Testable
// Property 3: at most one outcome is delivered per id).
func (c *Correlator) HandleResponse(id string, result json.RawMessage) {
	e := c.remove(id)
	if e == nil {
		c.logger.Debug("correlator: response for unknown id dropped", "id", id)
		return
	}
	e.resultCh <- Outcome{Result: result}
}

// HandleError delivers a JSON-RPC error response to the waiter for id.
func (c *Correlator) HandleError(id string, werr *jsonrpc.WireError) {
	e := c.remove(id)
	if e == nil {
		c.logger.Debug("correlator: error for unknown id dropped", "id", id)
		return
	}
	e.resultCh <- Outcome{Err: werr}
}

// HandleCancelNotification resolves the waiter for id with
// request_cancelled when the peer reports notifications/cancelled for a
// request we are tracking. No response is sent back over the wire;
// notifications are fire-and-forget. If the id is no longer pending
// (already resolved, a race with the real response) this silently no-ops,
// preserving the teacher-compatible behavior spec.md §9 calls out as an
// explicitly unspecified race.
func (c *Correlator) HandleCancelNotification(id, reason string) {
	e := c.remove(id)
	if e == nil {
		// A peer's requestId may arrive as the bare string; pending keys
		// hold the id's JSON form.
		e = c.remove(jsonrpc.NewStringID(id).String())
	}
	if e == nil {
		return
	}
	e.resultCh <- Outcome{Cancelled: true, Reason: reason}
}

// Cancel is a local request to abandon a pending call. It removes the
// waiter, resolves it with request_cancelled, and emits
// notifications/cancelled over the transport.
func (c *Correlator) Cancel(ctx context.Context, id, reason string) {
	e := c.remove(id)
	if e == nil {
		return
	}
	e.resultCh <- Outcome{Cancelled: true, Reason: reason}
	c.emitCancelled(ctx, id, reason)
}

// CancelAll cancels every pending entry, used on transport shutdown
// ("client closed") per spec.md §4.7.
func (c *Correlator) CancelAll(reason string) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		e := c.remove(id)
		if e != nil {
			e.resultCh <- Outcome{Cancelled: true, Reason: reason}
		}
	}
}

// timeoutRequest fires when a request's deadline (plus grace period)
// elapses with no response: the waiter is resolved with request_timeout
// and a notifications/cancelled is emitted over the transport, per
// spec.md §4.7 and Testable Property 9.
func (c *Correlator) timeoutRequest(ctx context.Context, id string) {
	e := c.remove(id)
	if e == nil {
		return
	}
	e.resultCh <- Outcome{Timeout: true, Reason: "timeout"}
	c.emitCancelled(ctx, id, "timeout")
}

func (c *Correlator) emitCancelled(ctx context.Context, id, reason string) {
	frame, err := jsonrpc.EncodeNotification("notifications/cancelled", map[string]any{
		"requestId": json.RawMessage(id),
		"reason":    reason,
	})
	if err != nil {
		c.logger.Warn("correlator: failed to encode cancelled notification", "error", err)
		return
	}
	if err := c.sender.Send(ctx, frame); err != nil {
		c.logger.Warn("correlator: failed to send cancelled notification", "error", err)
	}
}
