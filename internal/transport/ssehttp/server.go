// Package ssehttp implements the legacy HTTP+SSE transport from
// spec.md §4.10.3: an SSE endpoint bootstrapping clients with an
// `event: endpoint` frame naming a second POST endpoint for client→server
// traffic. It is grounded directly on dkmcp/internal/mcp/server.go's
// handleSSE/handleMessage (server side) and dkmcp/internal/client/client.go's
// Connect/readSSEMessages (client side), generalized from a Docker-specific
// JSON-RPC dispatch to the opaque byte-frame Transport contract.
package ssehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fenwicklabs/mcprt/internal/transport"
)

const (
	// DefaultSSEPath is the endpoint clients connect to first.
	DefaultSSEPath = "/sse"
	// DefaultMessagePath is the endpoint advertised via the endpoint event.
	DefaultMessagePath = "/message"
)

type client struct {
	id       string
	messages chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
}

// Transport serves the legacy SSE transport as an http.Handler.
type Transport struct {
	SSEPath     string
	MessagePath string

	addr   string
	logger *slog.Logger
	server *http.Server

	mu      sync.RWMutex
	clients map[string]*client
	onFrame transport.FrameHandler
}

// New builds a server-side Transport that will listen on addr.
func New(addr string, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		SSEPath:     DefaultSSEPath,
		MessagePath: DefaultMessagePath,
		addr:        addr,
		logger:      logger,
		clients:     make(map[string]*client),
	}
}

// Start implements transport.Transport, serving HTTP until ctx is done.
func (t *Transport) Start(ctx context.Context, onFrame transport.FrameHandler) error {
	t.mu.Lock()
	t.onFrame = onFrame
	t.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(t.SSEPath, t.handleSSE)
	mux.HandleFunc(t.MessagePath, t.handleMessage)
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

func (t *Transport) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(r.Context())
	id := uuid.NewString()
	c := &client{id: id, messages: make(chan []byte, 16), ctx: ctx, cancel: cancel}

	t.mu.Lock()
	t.clients[id] = c
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.clients, id)
		t.mu.Unlock()
		cancel()
	}()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	endpointURL := fmt.Sprintf("%s?sessionId=%s", t.MessagePath, id)
	fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", endpointURL)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.messages:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (t *Transport) handleMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId parameter", http.StatusBadRequest)
		return
	}

	t.mu.RLock()
	c, ok := t.clients[sessionID]
	t.mu.RUnlock()
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	t.mu.RLock()
	handler := t.onFrame
	t.mu.RUnlock()
	if handler != nil {
		handler(r.Context(), sessionID, body)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

// Send delivers a frame through the named client's open SSE channel.
func (t *Transport) Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error {
	t.mu.RLock()
	c, ok := t.clients[sessionID]
	t.mu.RUnlock()
	if !ok {
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case c.messages <- frame:
		return nil
	case <-c.ctx.Done():
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	case <-time.After(timeout):
		return fmt.Errorf("ssehttp: timed out sending to session %s", sessionID)
	}
}

// Shutdown cancels every connected client and stops the HTTP server.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	for _, c := range t.clients {
		c.cancel()
	}
	t.clients = make(map[string]*client)
	t.mu.Unlock()
	if t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}

// SupportedProtocolVersions implements transport.Transport. The legacy SSE
// transport is only defined for the 2024-11-05 revision, per spec.md
// §4.10.3.
func (t *Transport) SupportedProtocolVersions() []string {
	return []string{"2024-11-05"}
}

// resolveEndpointURL implements the dedup rules from spec.md §4.10.3 for a
// client resolving the endpoint event's data against the base URL it
// connected to: absolute URLs pass through, relative URLs are joined, and
// a server-supplied path that already carries the base path's prefix is
// not duplicated.
func resolveEndpointURL(baseURL, endpoint string) (string, error) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint, nil
	}
	base := strings.TrimSuffix(baseURL, "/")
	if idx := strings.Index(base, "://"); idx >= 0 {
		if schemeHost := base[:idx+3]; strings.HasPrefix(endpoint, schemeHost) {
			return endpoint, nil
		}
	}
	basePath := base
	if idx := strings.Index(base, "://"); idx >= 0 {
		if slash := strings.Index(base[idx+3:], "/"); slash >= 0 {
			basePath = base[idx+3+slash:]
		} else {
			basePath = ""
		}
	}
	if basePath != "" && strings.HasPrefix(endpoint, basePath) {
		return base[:len(base)-len(basePath)] + endpoint, nil
	}
	return base + "/" + strings.TrimPrefix(endpoint, "/"), nil
}
