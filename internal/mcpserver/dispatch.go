package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fenwicklabs/mcprt/internal/audit"
	"github.com/fenwicklabs/mcprt/internal/correlator"
	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/registry"
)

// Dispatch routes one decoded inbound message for sessionID. Requests
// produce a response frame; notifications and response/error frames
// (answers to server-initiated requests) produce none, matching spec.md
// §4.10's "Inbound frames surface as {incoming, bytes} to the engine."
func (e *Engine) Dispatch(ctx context.Context, sessionID string, msg jsonrpc.Message, notifier Notifier) ([]byte, bool) {
	switch msg.Kind {
	case jsonrpc.KindRequest:
		return e.handleRequest(ctx, sessionID, msg, notifier), true
	case jsonrpc.KindNotification:
		e.handleNotification(ctx, sessionID, msg, notifier)
		return nil, false
	case jsonrpc.KindResponse:
		e.correlatorFor(sessionID, notifier).HandleResponse(msg.ID.String(), msg.Result)
		return nil, false
	case jsonrpc.KindError:
		e.correlatorFor(sessionID, notifier).HandleError(msg.ID.String(), msg.Error)
		return nil, false
	default:
		if msg.Error != nil && !msg.ID.IsZero() {
			frame, _ := jsonrpc.EncodeError(msg.Error, msg.ID)
			return frame, true
		}
		e.Logger.Warn("mcpserver: dropping undecodable frame with no id")
		return nil, false
	}
}

func (e *Engine) handleRequest(ctx context.Context, sessionID string, msg jsonrpc.Message, notifier Notifier) []byte {
	sess := e.Session(ctx, sessionID)
	snapshot := sess.Get()

	if msg.Method != "initialize" && msg.Method != "ping" && !snapshot.Initialized {
		return e.errorFrame(msg.ID, jsonrpc.InvalidRequest("session not initialized: "+msg.Method))
	}

	sess.TrackRequest(msg.ID.String(), msg.Method)
	defer sess.CompleteRequest(msg.ID.String())

	var result any
	var werr *jsonrpc.WireError

	switch msg.Method {
	case "ping":
		result = map[string]any{}
	case "initialize":
		result, werr = e.doInitialize(sess, msg)
	case "tools/list":
		result, werr = e.doToolsList(msg)
	case "tools/call":
		result, werr = e.doToolsCall(ctx, sessionID, msg)
	case "prompts/list":
		result, werr = e.doPromptsList(msg)
	case "prompts/get":
		result, werr = e.doPromptsGet(ctx, sessionID, msg)
	case "resources/list":
		result, werr = e.doResourcesList(msg)
	case "resources/templates/list":
		result, werr = e.doResourceTemplatesList(msg)
	case "resources/read":
		result, werr = e.doResourcesRead(ctx, sessionID, msg)
	case "logging/setLevel":
		result, werr = e.doSetLevel(sess, msg)
	case "completion/complete":
		result, werr = e.doComplete(ctx, sessionID, msg)
	default:
		werr = jsonrpc.MethodNotFound(msg.Method)
	}

	if werr != nil {
		return e.errorFrame(msg.ID, werr)
	}
	frame, err := jsonrpc.EncodeResponse(result, msg.ID)
	if err != nil {
		return e.errorFrame(msg.ID, jsonrpc.InternalError(err.Error()))
	}
	return frame
}

func (e *Engine) handleNotification(ctx context.Context, sessionID string, msg jsonrpc.Message, notifier Notifier) {
	sess := e.Session(ctx, sessionID)
	switch msg.Method {
	case "notifications/initialized":
		sess.MarkInitialized()
		if e.Audit != nil {
			e.Audit.Log(ctx, audit.Event{Type: audit.EventInitialize, SessionID: sessionID, Result: audit.ResultSuccess})
		}
	case "notifications/cancelled":
		var params struct {
			RequestID string `json:"requestId"`
			Reason    string `json:"reason"`
		}
		_ = json.Unmarshal(msg.Params, &params)
		sess.CompleteRequest(params.RequestID)
		e.correlatorFor(sessionID, notifier).HandleCancelNotification(params.RequestID, params.Reason)
	default:
		// Unknown notifications are ignored; per spec.md §4.1 notifications
		// are fire-and-forget and have no response path to report an error
		// on.
	}
}

func (e *Engine) errorFrame(id jsonrpc.ID, werr *jsonrpc.WireError) []byte {
	frame, _ := jsonrpc.EncodeError(werr, id)
	return frame
}

// correlatorFor lazily creates the per-session correlator used for
// server-initiated requests to that session's client (sampling, roots).
func (e *Engine) correlatorFor(sessionID string, notifier Notifier) *correlator.Correlator {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.clientCorrelators == nil {
		e.clientCorrelators = map[string]*correlator.Correlator{}
	}
	if c, ok := e.clientCorrelators[sessionID]; ok {
		return c
	}
	c := correlator.New(notifierSender{sessionID: sessionID, notifier: notifier}, e.Logger)
	e.clientCorrelators[sessionID] = c
	return c
}

type notifierSender struct {
	sessionID string
	notifier  Notifier
}

func (s notifierSender) Send(ctx context.Context, frame []byte) error {
	if s.notifier == nil {
		return nil
	}
	return s.notifier.Notify(s.sessionID, frame)
}

// RequestFromClient lets the server issue a bidirectional request to a
// connected client (sampling/createMessage, roots/list), per spec.md
// §4.8/§6.
func (e *Engine) RequestFromClient(ctx context.Context, sessionID, method string, params any, notifier Notifier) (json.RawMessage, *jsonrpc.WireError) {
	return e.correlatorFor(sessionID, notifier).SendRequest(ctx, method, params, 30*time.Second)
}

func paramsFromRaw(raw []byte, out any) *jsonrpc.WireError {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return jsonrpc.InvalidParams("", "malformed params: "+err.Error())
	}
	return nil
}

func frameFor(sessionID string) registry.Frame {
	return registry.NewFrame(sessionID)
}
