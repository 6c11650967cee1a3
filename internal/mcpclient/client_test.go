package mcpclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/mcpserver"
	"github.com/fenwicklabs/mcprt/internal/registry"
	"github.com/fenwicklabs/mcprt/internal/schema"
	"github.com/fenwicklabs/mcprt/internal/session"
	"github.com/fenwicklabs/mcprt/internal/transport"
)

// loopbackTransport wires a Client directly into an in-process
// mcpserver.Engine, skipping any real wire framing, so the protocol
// engines on both sides can be exercised together in one test binary.
type loopbackTransport struct {
	engine    *mcpserver.Engine
	sessionID string
	onFrame   transport.FrameHandler
}

func (l *loopbackTransport) Start(ctx context.Context, onFrame transport.FrameHandler) error {
	l.onFrame = onFrame
	return nil
}

func (l *loopbackTransport) Send(ctx context.Context, sessionID string, frame []byte, timeout time.Duration) error {
	for _, msg := range jsonrpc.Decode(frame) {
		respFrame, ok := l.engine.Dispatch(ctx, l.sessionID, msg, loopbackNotifier{l})
		if ok && l.onFrame != nil {
			l.onFrame(ctx, l.sessionID, respFrame)
		}
	}
	return nil
}

func (l *loopbackTransport) Shutdown(ctx context.Context) error { return nil }

func (l *loopbackTransport) SupportedProtocolVersions() []string {
	return []string{"2025-06-18"}
}

type loopbackNotifier struct{ l *loopbackTransport }

func (n loopbackNotifier) Notify(sessionID string, frame []byte) error {
	if n.l.onFrame != nil {
		n.l.onFrame(context.Background(), sessionID, frame)
	}
	return nil
}

func newLoopbackClient(t *testing.T) (*Client, *mcpserver.Engine) {
	t.Helper()
	reg := registry.New()
	echo := &registry.Tool{
		Name:         "echo",
		InputSchema:  schema.Schema{"text": schema.Required(schema.String())},
		OutputSchema: schema.Schema{"echoed": schema.Required(schema.String())},
		Handler: func(ctx context.Context, params map[string]any, frame registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
			return registry.ToolResult{
				Content:           []registry.ContentBlock{{Type: "text", Text: params["text"].(string)}},
				StructuredContent: map[string]any{"echoed": params["text"]},
			}, nil
		},
	}
	require.NoError(t, reg.RegisterTool(echo))

	engine := mcpserver.New(reg, session.NewMemoryStore(0), mcpserver.ServerInfo{Name: "loop", Version: "0.0.1"}, []string{"2025-06-18"}, nil)
	lt := &loopbackTransport{engine: engine, sessionID: "loop-session"}
	client := New(lt, nil)
	require.NoError(t, client.Start(context.Background()))
	return client, engine
}

func TestHandshakeThenCallTool(t *testing.T) {
	client, _ := newLoopbackClient(t)
	ctx := context.Background()

	require.NoError(t, client.Initialize(ctx, ClientInfo{Name: "tester", Version: "1.0"}, map[string]any{}, "2025-06-18"))
	assert.True(t, client.hasServerCapability("tools"))

	_, err := client.ListTools(ctx, "", 0)
	require.NoError(t, err)

	result, err := client.CallTool(ctx, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	structured, ok := result["structuredContent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", structured["echoed"])
}

func TestCallToolRejectedWithoutCapability(t *testing.T) {
	client, _ := newLoopbackClient(t)
	ctx := context.Background()
	require.NoError(t, client.Initialize(ctx, ClientInfo{Name: "tester", Version: "1.0"}, map[string]any{}, "2025-06-18"))

	client.mu.Lock()
	client.serverCapabilities = map[string]any{}
	client.mu.Unlock()

	_, err := client.CallTool(ctx, "echo", map[string]any{"text": "hi"})
	require.Error(t, err)
}

func TestSamplingCallbackMissingReturnsFixedError(t *testing.T) {
	client, engine := newLoopbackClient(t)
	ctx := context.Background()
	require.NoError(t, client.Initialize(ctx, ClientInfo{Name: "tester", Version: "1.0"}, map[string]any{}, "2025-06-18"))

	forwardToClient := func(ctx context.Context, sessionID string, frame []byte) { client.handleInboundFrame(ctx, frame) }
	notifier := loopbackNotifier{&loopbackTransport{engine: engine, sessionID: "loop-session", onFrame: forwardToClient}}
	raw, werr := engine.RequestFromClient(ctx, "loop-session", "sampling/createMessage", map[string]any{}, notifier)
	assert.Nil(t, raw)
	require.NotNil(t, werr)
	assert.Equal(t, -1, werr.Code)
	assert.Equal(t, "No sampling callback registered", werr.Message)
}
