// Package wsocket implements the WebSocket transport from spec.md §4.10.4:
// a text-frame duplex connection upgraded at a configurable path. It is
// grounded on the `wsUpgrader websocket.Upgrader` field and connection
// lifecycle pattern in
// other_examples/95890b52_standardbeagle-brummer__internal-mcp-streamable_server.go.go,
// adapted onto mcprt's session-id-keyed byte-frame Transport contract.
package wsocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fenwicklabs/mcprt/internal/transport"
)

// DefaultPathSuffix is appended to the configured base path to form the
// upgrade path, per spec.md §4.10.4 ("{base_path}/ws").
const DefaultPathSuffix = "/ws"

type conn struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *conn) close(code int, reason string) {
	c.once.Do(func() {
		deadline := time.Now().Add(2 * time.Second)
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		close(c.done)
		c.ws.Close()
	})
}

// Transport serves the WebSocket transport, mounted at BasePath+DefaultPathSuffix.
type Transport struct {
	BasePath string

	addr     string
	upgrader websocket.Upgrader
	logger   *slog.Logger
	server   *http.Server

	mu      sync.Mutex
	conns   map[string]*conn
	onFrame transport.FrameHandler
}

// New builds a Transport that will listen on addr when Start is called.
// checkOrigin validates the handshake's Origin header; pass nil to accept
// any origin (same-process loopback use only).
func New(addr, basePath string, checkOrigin func(*http.Request) bool, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Transport{
		BasePath: basePath,
		addr:     addr,
		logger:   logger,
		conns:    make(map[string]*conn),
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Start implements transport.Transport, serving the WebSocket upgrade
// endpoint until ctx is done.
func (t *Transport) Start(ctx context.Context, onFrame transport.FrameHandler) error {
	t.mu.Lock()
	t.onFrame = onFrame
	t.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(t.BasePath+DefaultPathSuffix, func(w http.ResponseWriter, r *http.Request) {
		t.handleUpgrade(ctx, w, r)
	})
	t.server = &http.Server{Addr: t.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- t.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (t *Transport) handleUpgrade(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.Warn("wsocket: upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	c := &conn{id: id, ws: ws, send: make(chan []byte, 16), done: make(chan struct{})}

	t.mu.Lock()
	t.conns[id] = c
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.conns, id)
		t.mu.Unlock()
	}()

	go t.writeLoop(c)
	t.readLoop(ctx, c)
}

func (t *Transport) readLoop(ctx context.Context, c *conn) {
	defer c.close(websocket.CloseNormalClosure, "")
	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		t.mu.Lock()
		handler := t.onFrame
		t.mu.Unlock()
		if handler != nil {
			handler(ctx, c.id, data)
		}
	}
}

func (t *Transport) writeLoop(c *conn) {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close(websocket.CloseInternalServerErr, err.Error())
				return
			}
		}
	}
}

// Send delivers a frame to the named connection's write queue.
func (t *Transport) Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error {
	t.mu.Lock()
	c, ok := t.conns[sessionID]
	t.mu.Unlock()
	if !ok {
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	case <-time.After(timeout):
		return fmt.Errorf("wsocket: timed out sending to session %s", sessionID)
	}
}

// Shutdown closes every open connection and stops the HTTP server.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	for _, c := range t.conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	t.conns = make(map[string]*conn)
	t.mu.Unlock()
	if t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}

// SupportedProtocolVersions implements transport.Transport. WebSocket
// carries all protocol versions, per spec.md §4.10.4.
func (t *Transport) SupportedProtocolVersions() []string {
	return []string{"2024-11-05", "2025-03-26", "2025-06-18"}
}
