package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/mcprt/internal/jsonrpc"
	"github.com/fenwicklabs/mcprt/internal/registry"
	"github.com/fenwicklabs/mcprt/internal/schema"
	"github.com/fenwicklabs/mcprt/internal/session"
)

type captureNotifier struct {
	frames [][]byte
}

func (n *captureNotifier) Notify(sessionID string, frame []byte) error {
	n.frames = append(n.frames, frame)
	return nil
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	reg := registry.New()
	echo := &registry.Tool{
		Name:        "echo",
		Description: "echoes its input",
		InputSchema: schema.Schema{"text": schema.Required(schema.String())},
		Handler: func(ctx context.Context, params map[string]any, frame registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
			return registry.ToolResult{Content: []registry.ContentBlock{{Type: "text", Text: params["text"].(string)}}}, nil
		},
	}
	require.NoError(t, reg.RegisterTool(echo))
	store := session.NewMemoryStore(0)
	return New(reg, store, ServerInfo{Name: "test", Version: "0.0.1"}, []string{"2025-06-18"}, nil)
}

func decodeResult(t *testing.T, frame []byte, out any) {
	t.Helper()
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *jsonrpc.WireError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))
	require.Nil(t, envelope.Error)
	require.NoError(t, json.Unmarshal(envelope.Result, out))
}

func TestInitializationGateRejectsPriorCalls(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	notifier := &captureNotifier{}

	req := jsonrpc.Message{
		Kind:   jsonrpc.KindRequest,
		ID:     jsonrpc.NewIntID(1),
		Method: "tools/list",
	}
	frame, ok := e.Dispatch(ctx, "sess-1", req, notifier)
	require.True(t, ok)

	var envelope struct {
		Error *jsonrpc.WireError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, envelope.Error.Code)
}

func TestInitializeThenToolsListSucceeds(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	notifier := &captureNotifier{}

	initReq := jsonrpc.Message{
		Kind:   jsonrpc.KindRequest,
		ID:     jsonrpc.NewIntID(1),
		Method: "initialize",
		Params: mustJSON(t, map[string]any{
			"protocolVersion": "2025-06-18",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "tester", "version": "1.0"},
		}),
	}
	frame, ok := e.Dispatch(ctx, "sess-2", initReq, notifier)
	require.True(t, ok)
	var initResult struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	decodeResult(t, frame, &initResult)
	assert.Equal(t, "2025-06-18", initResult.ProtocolVersion)

	initializedNotif := jsonrpc.Message{Kind: jsonrpc.KindNotification, Method: "notifications/initialized"}
	_, ok = e.Dispatch(ctx, "sess-2", initializedNotif, notifier)
	assert.False(t, ok)

	listReq := jsonrpc.Message{Kind: jsonrpc.KindRequest, ID: jsonrpc.NewIntID(2), Method: "tools/list"}
	frame, ok = e.Dispatch(ctx, "sess-2", listReq, notifier)
	require.True(t, ok)
	var listResult struct {
		Tools []map[string]any `json:"tools"`
	}
	decodeResult(t, frame, &listResult)
	require.Len(t, listResult.Tools, 1)
	assert.Equal(t, "echo", listResult.Tools[0]["name"])
}

func TestUnregisteredCapabilityRejectsPromptsList(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	notifier := &captureNotifier{}

	sess := e.Session(ctx, "sess-3")
	sess.SetProtocolVersion("2025-06-18")
	sess.MarkInitialized()

	req := jsonrpc.Message{Kind: jsonrpc.KindRequest, ID: jsonrpc.NewIntID(1), Method: "prompts/list"}
	frame, ok := e.Dispatch(ctx, "sess-3", req, notifier)
	require.True(t, ok)

	var envelope struct {
		Error *jsonrpc.WireError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, envelope.Error.Code)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
