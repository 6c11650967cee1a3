package mcpserver

import (
	"context"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/session"
)

// LogNotify pushes a notifications/message frame to sessionID if its
// configured log level admits it, per spec.md §4.8's logging/setLevel
// gating rule.
func (e *Engine) LogNotify(ctx context.Context, sessionID, level, logger string, data any, notifier Notifier) {
	sess := e.Session(ctx, sessionID)
	if !session.LogLevelAtLeast(level, sess.Get().LogLevel) {
		return
	}
	params := map[string]any{"level": level, "data": data}
	if logger != "" {
		params["logger"] = logger
	}
	frame, err := jsonrpc.EncodeNotification("notifications/message", params)
	if err != nil {
		e.Logger.Warn("mcpserver: failed to encode log notification", "error", err)
		return
	}
	if notifier == nil {
		return
	}
	if err := notifier.Notify(sessionID, frame); err != nil {
		e.Logger.Warn("mcpserver: failed to deliver log notification", "session_id", sessionID, "error", err)
	}
}

// ProgressNotify pushes a notifications/progress frame keyed by the
// progress token a client supplied in a request's _meta field, per
// spec.md §4.8.
func (e *Engine) ProgressNotify(sessionID, progressToken string, progress, total float64, message string, notifier Notifier) {
	params := map[string]any{"progressToken": progressToken, "progress": progress}
	if total > 0 {
		params["total"] = total
	}
	if message != "" {
		params["message"] = message
	}
	frame, err := jsonrpc.EncodeNotification("notifications/progress", params)
	if err != nil {
		e.Logger.Warn("mcpserver: failed to encode progress notification", "error", err)
		return
	}
	if notifier == nil {
		return
	}
	if err := notifier.Notify(sessionID, frame); err != nil {
		e.Logger.Warn("mcpserver: failed to deliver progress notification", "session_id", sessionID, "error", err)
	}
}
