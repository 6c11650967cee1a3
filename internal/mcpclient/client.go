// Package mcpclient implements the client-side protocol engine from
// spec.md §4.9: convenience methods mirroring the server's method table,
// a local copy of the negotiated server capabilities, and handling for
// the two server-initiated request kinds (roots/list,
// sampling/createMessage) plus inbound progress notifications.
//
// It generalizes dkmcp/internal/client/client.go's CallTool/initialize
// pair — which only knew how to call tools.call and initialize over a
// single hardcoded SSE connection — into the full bidirectional surface,
// decoupled from any one transport via internal/transport.Transport.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fenwicklabs/mcprt/internal/correlator"
	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/schema"
	"github.com/fenwicklabs/mcprt/internal/transport"
)

// ClientInfo identifies this client during the handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DefaultRequestTimeout bounds every server round trip; a shorter
// deadline on the caller's context ends the wait sooner.
const DefaultRequestTimeout = 30 * time.Second

// Client is the client-side protocol engine for one server connection.
type Client struct {
	transport   transport.Transport
	sessionID   string
	logger      *slog.Logger
	correlator  *correlator.Correlator
	outputCache *schema.OutputCache

	mu                 sync.RWMutex
	protocolVersion    string
	serverInfo         map[string]any
	serverCapabilities map[string]any
	initialized        bool

	roots             []Root
	samplingCallback  SamplingCallback
	progressCallbacks map[string]ProgressCallback
	logHandler        func(level, logger string, data any)
}

// New builds a Client bound to t. Call Start before Initialize.
func New(t transport.Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		transport:         t,
		logger:            logger,
		outputCache:       schema.NewOutputCache(),
		progressCallbacks: map[string]ProgressCallback{},
	}
	c.correlator = correlator.New(clientSender{c}, logger)
	return c
}

type clientSender struct{ c *Client }

func (s clientSender) Send(ctx context.Context, frame []byte) error {
	return s.c.transport.Send(ctx, s.c.sessionID, frame, 0)
}

// Start begins the transport and wires inbound frames to this client's
// dispatch logic.
func (c *Client) Start(ctx context.Context) error {
	return c.transport.Start(ctx, func(ctx context.Context, sessionID string, frame []byte) {
		c.mu.Lock()
		if c.sessionID == "" {
			c.sessionID = sessionID
		}
		c.mu.Unlock()
		c.handleInboundFrame(ctx, frame)
	})
}

// Close cancels every pending call and shuts down the transport.
func (c *Client) Close(ctx context.Context) error {
	c.correlator.CancelAll("client closed")
	return c.transport.Shutdown(ctx)
}

// Initialize performs the handshake described in spec.md §4.7/§4.8: send
// initialize, negotiate a protocol version, then send
// notifications/initialized before any other request is attempted.
func (c *Client) Initialize(ctx context.Context, info ClientInfo, capabilities map[string]any, preferredVersion string) error {
	params := map[string]any{
		"protocolVersion": preferredVersion,
		"capabilities":    capabilities,
		"clientInfo":      info,
	}
	raw, werr := c.correlator.SendRequest(ctx, "initialize", params, DefaultRequestTimeout)
	if werr != nil {
		return fmt.Errorf("mcpclient: initialize: %s", werr.Message)
	}

	var result struct {
		ProtocolVersion string         `json:"protocolVersion"`
		ServerInfo      map[string]any `json:"serverInfo"`
		Capabilities    map[string]any `json:"capabilities"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("mcpclient: initialize: malformed result: %w", err)
	}

	c.mu.Lock()
	c.protocolVersion = result.ProtocolVersion
	c.serverInfo = result.ServerInfo
	c.serverCapabilities = result.Capabilities
	c.mu.Unlock()

	frame, err := jsonrpc.EncodeNotification("notifications/initialized", nil)
	if err != nil {
		return fmt.Errorf("mcpclient: encode notifications/initialized: %w", err)
	}
	if err := c.transport.Send(ctx, c.sessionID, frame, 0); err != nil {
		return fmt.Errorf("mcpclient: send notifications/initialized: %w", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()
	return nil
}

// ServerCapabilities returns the capability set negotiated during
// initialize.
func (c *Client) ServerCapabilities() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverCapabilities
}

func (c *Client) hasServerCapability(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.serverCapabilities[name]
	return ok
}

func (c *Client) requireCapability(name string) *jsonrpc.WireError {
	if !c.hasServerCapability(name) {
		return jsonrpc.MethodNotFound("server does not advertise capability: " + name)
	}
	return nil
}

func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, *jsonrpc.WireError) {
	return c.correlator.SendRequest(ctx, method, params, DefaultRequestTimeout)
}
