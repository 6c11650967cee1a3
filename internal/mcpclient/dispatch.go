package mcpclient

import (
	"context"
	"encoding/json"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
)

// handleInboundFrame classifies one frame arriving from the server and
// routes it: responses/errors resolve the correlator, notifications feed
// progress/log callbacks, and server-initiated requests (roots/list,
// sampling/createMessage) are answered directly, mirroring the engine's
// Dispatch but from the client's side of the wire.
func (c *Client) handleInboundFrame(ctx context.Context, frame []byte) {
	for _, msg := range jsonrpc.Decode(frame) {
		switch msg.Kind {
		case jsonrpc.KindResponse:
			c.correlator.HandleResponse(msg.ID.String(), msg.Result)
		case jsonrpc.KindError:
			c.correlator.HandleError(msg.ID.String(), msg.Error)
		case jsonrpc.KindNotification:
			c.handleNotification(msg)
		case jsonrpc.KindRequest:
			c.handleServerRequest(ctx, msg)
		default:
			c.logger.Warn("mcpclient: dropping undecodable inbound frame")
		}
	}
}

func (c *Client) handleNotification(msg jsonrpc.Message) {
	switch msg.Method {
	case "notifications/progress":
		var params struct {
			ProgressToken string  `json:"progressToken"`
			Progress      float64 `json:"progress"`
			Total         float64 `json:"total"`
			Message       string  `json:"message"`
		}
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return
		}
		if cb, ok := c.progressCallback(params.ProgressToken); ok {
			cb(params.Progress, params.Total, params.Message)
		}
	case "notifications/message":
		var params struct {
			Level  string `json:"level"`
			Logger string `json:"logger"`
			Data   any    `json:"data"`
		}
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return
		}
		if handler := c.logHandlerSnapshot(); handler != nil {
			handler(params.Level, params.Logger, params.Data)
		}
	case "notifications/cancelled":
		var params struct {
			RequestID string `json:"requestId"`
			Reason    string `json:"reason"`
		}
		_ = json.Unmarshal(msg.Params, &params)
		c.correlator.HandleCancelNotification(params.RequestID, params.Reason)
	default:
		// Unrecognized notifications are ignored; fire-and-forget, no
		// response path exists to surface an error on.
	}
}

func (c *Client) handleServerRequest(ctx context.Context, msg jsonrpc.Message) {
	var result any
	var werr *jsonrpc.WireError

	switch msg.Method {
	case "ping":
		result = map[string]any{}
	case "roots/list":
		result = map[string]any{"roots": c.Roots()}
	case "sampling/createMessage":
		result, werr = c.doSamplingCreateMessage(ctx, msg)
	default:
		werr = jsonrpc.MethodNotFound(msg.Method)
	}

	var frame []byte
	var err error
	if werr != nil {
		frame, err = jsonrpc.EncodeError(werr, msg.ID)
	} else {
		frame, err = jsonrpc.EncodeResponse(result, msg.ID)
	}
	if err != nil {
		c.logger.Warn("mcpclient: failed to encode reply to server request", "method", msg.Method, "error", err)
		return
	}
	if err := c.transport.Send(ctx, c.sessionID, frame, 0); err != nil {
		c.logger.Warn("mcpclient: failed to send reply to server request", "method", msg.Method, "error", err)
	}
}

// doSamplingCreateMessage honors spec.md §4.9's exact contract: no
// callback registered surfaces a fixed code=-1 error; a callback that
// errors surfaces the reason in the message.
func (c *Client) doSamplingCreateMessage(ctx context.Context, msg jsonrpc.Message) (any, *jsonrpc.WireError) {
	cb := c.samplingCallbackSnapshot()
	if cb == nil {
		return nil, jsonrpc.NewError(-1, "No sampling callback registered", nil)
	}
	var params map[string]any
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, jsonrpc.InvalidParams("", "malformed sampling params: "+err.Error())
	}
	result, err := cb(ctx, params)
	if err != nil {
		return nil, jsonrpc.NewError(-1, err.Error(), nil)
	}
	return result, nil
}
