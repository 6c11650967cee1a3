// Package transport defines the contract every wire transport satisfies,
// per spec.md §4.10: "All transports satisfy: start, send(bytes,
// {timeout?}) -> ok|err, shutdown, supported_protocol_versions." It
// generalizes dkmcp/internal/mcp/server.go's client struct (a
// `messages chan []byte` plus a context/cancel pair wired directly into
// the SSE handler) into a reusable interface so the protocol engines in
// internal/mcpserver and internal/mcpclient never know which concrete
// transport carried a frame.
package transport

import (
	"context"
	"time"
)

// FrameHandler is invoked once per inbound frame a transport receives,
// already split from whatever framing the transport uses (newlines,
// SSE events, WebSocket text frames). sessionID names the session the
// frame belongs to: stdio always passes "stdio", and the WebSocket
// transport passes a fresh id for each connection.
type FrameHandler func(ctx context.Context, sessionID string, frame []byte)

// Transport is the common contract spec.md §4.10 requires of stdio,
// streamable HTTP, legacy SSE, and WebSocket.
type Transport interface {
	// Start begins accepting/producing frames, delivering each inbound
	// one to onFrame. Start returns once the transport is listening (for
	// server transports) or connected (for client transports); ongoing
	// work continues on background goroutines until Shutdown.
	Start(ctx context.Context, onFrame FrameHandler) error

	// Send delivers one outbound frame, addressed to sessionID for
	// transports that multiplex several sessions (streamable HTTP, SSE,
	// WebSocket); ignored by stdio. timeout<=0 selects the transport's own
	// default wait (5s for SSE and WebSocket, 30s for streamable HTTP);
	// stdio writes without a deadline.
	Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error

	// Shutdown stops accepting new work and tears down in-flight
	// connections, giving the caller a chance to bound how long it waits.
	Shutdown(ctx context.Context) error

	// SupportedProtocolVersions lists the MCP protocol versions this
	// transport can carry, per spec.md §4.10's per-transport version sets.
	SupportedProtocolVersions() []string
}

// ErrSessionUnknown is returned by a transport's Send when sessionID
// names no live connection, e.g. the streamable HTTP transport after a
// 404-triggering session expiry.
type ErrSessionUnknown struct {
	SessionID string
}

func (e *ErrSessionUnknown) Error() string {
	return "transport: unknown session " + e.SessionID
}
