// Package streamhttp implements the streamable HTTP transport from
// spec.md §4.10.2: a single endpoint multiplexing POST (request/response),
// GET (SSE upgrade), and DELETE (session termination), keyed by a
// session-id header. It is grounded on the official Go SDK's
// StreamableHTTPHandler/StreamableServerTransport
// (other_examples/da844fc4_modelcontextprotocol-go-sdk__mcp-streamable.go.go),
// simplified to mcprt's session-id-keyed, byte-frame Transport contract
// instead of that SDK's per-stream event-index bookkeeping, and reuses
// dkmcp's http.Server lifecycle and SSE-flush idiom from
// dkmcp/internal/mcp/server.go.
package streamhttp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fenwicklabs/mcprt/internal/transport"
)

// DefaultPath is the single endpoint path this transport serves.
const DefaultPath = "/mcp"

// DefaultSessionHeader is the header carrying the session id, configurable
// per spec.md §4.10.2 ("the session header name is configurable").
const DefaultSessionHeader = "mcp-session-id"

// DefaultRequestTimeout bounds how long a POST's task supervision waits
// before cancelling and returning internal_error, per spec.md §4.10.2.
const DefaultRequestTimeout = 30 * time.Second

// DefaultKeepaliveInterval is how often an open SSE channel receives a
// keepalive comment ping, per spec.md §4.10.2.
const DefaultKeepaliveInterval = 5 * time.Second

type session struct {
	id   string
	sse  chan []byte
	done chan struct{}
	once sync.Once
}

func newSession(id string) *session {
	return &session{id: id, sse: make(chan []byte, 32), done: make(chan struct{})}
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

// Transport serves the streamable HTTP transport as an http.Handler that
// must be mounted at Path (or wired into an existing mux).
type Transport struct {
	Path              string
	SessionHeader     string
	RequestTimeout    time.Duration
	KeepaliveInterval time.Duration

	logger *slog.Logger
	addr   string
	server *http.Server

	mu       sync.Mutex
	sessions map[string]*session
	onFrame  transport.FrameHandler
}

// New builds a Transport that will listen on addr when Start is called.
func New(addr string, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		Path:              DefaultPath,
		SessionHeader:     DefaultSessionHeader,
		RequestTimeout:    DefaultRequestTimeout,
		KeepaliveInterval: DefaultKeepaliveInterval,
		addr:              addr,
		logger:            logger,
		sessions:          make(map[string]*session),
	}
}

// Start implements transport.Transport, serving HTTP until ctx is done.
func (t *Transport) Start(ctx context.Context, onFrame transport.FrameHandler) error {
	t.mu.Lock()
	t.onFrame = onFrame
	t.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc(t.Path, t.handle)
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

func (t *Transport) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		t.handlePost(w, r)
	case http.MethodGet:
		t.handleGet(w, r)
	case http.MethodDelete:
		t.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
	}
}

func (t *Transport) sessionFor(r *http.Request, createIfMissing bool) (*session, bool) {
	id := r.Header.Get(t.SessionHeader)
	t.mu.Lock()
	defer t.mu.Unlock()
	if id == "" {
		if !createIfMissing {
			return nil, false
		}
		id = uuid.NewString()
		s := newSession(id)
		t.sessions[id] = s
		return s, true
	}
	s, ok := t.sessions[id]
	return s, ok
}

func (t *Transport) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "POST requires a non-empty body", http.StatusBadRequest)
		return
	}

	sess, ok := t.sessionFor(r, true)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set(t.SessionHeader, sess.id)

	ctx, cancel := context.WithTimeout(r.Context(), t.RequestTimeout)
	defer cancel()

	t.mu.Lock()
	handler := t.onFrame
	t.mu.Unlock()
	if handler != nil {
		handler(ctx, sess.id, body)
	}

	select {
	case resp := <-sess.sse:
		if err := writeSSEEventOrJSON(w, r, resp); err != nil {
			t.logger.Warn("streamhttp: failed to write POST response", "error", err)
		}
	case <-ctx.Done():
		http.Error(w, "internal_error: request timed out", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}

// writeSSEEventOrJSON writes frame as an application/json body. handlePost
// passes it whatever frame is queued for the session when the handler
// returns; an open GET stream reads the same queue, so a frame it takes
// first goes out as an SSE event and the POST answers 202.
func writeSSEEventOrJSON(w http.ResponseWriter, r *http.Request, frame []byte) error {
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write(frame)
	return err
}

func (t *Transport) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := t.sessionFor(r, false)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set(t.SessionHeader, sess.id)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(t.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.done:
			return
		case frame := <-sess.sse:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", frame)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (t *Transport) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(t.SessionHeader)
	if id == "" {
		http.Error(w, "DELETE requires a session header", http.StatusBadRequest)
		return
	}
	t.mu.Lock()
	sess, ok := t.sessions[id]
	if ok {
		delete(t.sessions, id)
	}
	t.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	sess.close()
	w.WriteHeader(http.StatusOK)
}

// Send delivers a frame to the named session's SSE/POST-response channel.
func (t *Transport) Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error {
	t.mu.Lock()
	sess, ok := t.sessions[sessionID]
	t.mu.Unlock()
	if !ok {
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	select {
	case sess.sse <- frame:
		return nil
	case <-sess.done:
		return &transport.ErrSessionUnknown{SessionID: sessionID}
	case <-time.After(timeout):
		return fmt.Errorf("streamhttp: timed out sending to session %s", sessionID)
	}
}

// Shutdown closes every open SSE channel and stops the HTTP server.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	for _, sess := range t.sessions {
		sess.close()
	}
	t.sessions = make(map[string]*session)
	t.mu.Unlock()
	if t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}

// SupportedProtocolVersions implements transport.Transport per spec.md
// §4.10.2.
func (t *Transport) SupportedProtocolVersions() []string {
	return []string{"2025-03-26", "2025-06-18"}
}
