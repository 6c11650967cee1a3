package ssehttp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fenwicklabs/mcprt/internal/transport"
)

// ClientTransport is the client side of the legacy SSE transport, grounded
// on dkmcp/internal/client/client.go's Connect/readSSEMessages.
type ClientTransport struct {
	baseURL    string
	httpClient *http.Client
	sseClient  *http.Client
	logger     *slog.Logger

	mu          sync.Mutex
	sessionID   string
	endpointURL string
	sseResp     *http.Response
}

// NewClient builds a ClientTransport that will connect to baseURL's SSE
// endpoint when Start is called.
func NewClient(baseURL string, logger *slog.Logger) *ClientTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientTransport{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sseClient:  &http.Client{},
		logger:     logger,
	}
}

// Start connects to the SSE endpoint, reads the bootstrap endpoint event,
// then streams message events to onFrame until the connection closes.
func (c *ClientTransport) Start(ctx context.Context, onFrame transport.FrameHandler) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+DefaultSSEPath, nil)
	if err != nil {
		return fmt.Errorf("ssehttp: build sse request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.sseClient.Do(req)
	if err != nil {
		return fmt.Errorf("ssehttp: connect sse: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("ssehttp: sse connect status %d", resp.StatusCode)
	}
	c.mu.Lock()
	c.sseResp = resp
	c.mu.Unlock()
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if event == "endpoint" && c.endpointURLUnset() {
				resolved, err := resolveEndpointURL(c.baseURL, data)
				if err != nil {
					c.logger.Warn("ssehttp: failed to resolve endpoint url", "error", err)
				} else {
					c.mu.Lock()
					c.endpointURL = resolved
					c.sessionID = extractSessionID(data)
					c.mu.Unlock()
				}
			} else if event == "message" {
				c.mu.Lock()
				sid := c.sessionID
				c.mu.Unlock()
				onFrame(ctx, sid, []byte(data))
			}
			event, data = "", ""
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ssehttp: sse stream: %w", err)
	}
	return nil
}

func (c *ClientTransport) endpointURLUnset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpointURL == ""
}

func extractSessionID(endpointData string) string {
	idx := strings.Index(endpointData, "sessionId=")
	if idx < 0 {
		return ""
	}
	return endpointData[idx+len("sessionId="):]
}

// Send POSTs a frame to the endpoint advertised by the server's bootstrap
// event.
func (c *ClientTransport) Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error {
	c.mu.Lock()
	endpoint := c.endpointURL
	c.mu.Unlock()
	if endpoint == "" {
		return fmt.Errorf("ssehttp: client not connected")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("ssehttp: build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ssehttp: send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("ssehttp: server rejected message with status %d", resp.StatusCode)
	}
	return nil
}

// Shutdown closes the open SSE connection, if any.
func (c *ClientTransport) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	resp := c.sseResp
	c.mu.Unlock()
	if resp == nil {
		return nil
	}
	return resp.Body.Close()
}

// SupportedProtocolVersions implements transport.Transport.
func (c *ClientTransport) SupportedProtocolVersions() []string {
	return []string{"2024-11-05"}
}
