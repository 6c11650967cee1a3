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

// TestScenarioToolOutputFailsSchema exercises Scenario C / Testable
// Property 11: a tool declares an output schema, returns structured
// content that violates it, and the call surfaces tool_output_invalid
// rather than a bare success.
func TestScenarioToolOutputFailsSchema(t *testing.T) {
	reg := registry.New()
	weather := &registry.Tool{
		Name:         "get_weather",
		InputSchema:  schema.Schema{"city": schema.Required(schema.String())},
		OutputSchema: schema.Schema{"temperature": schema.Required(schema.Float())},
		Handler: func(ctx context.Context, params map[string]any, frame registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
			return registry.ToolResult{
				Content:           []registry.ContentBlock{{Type: "text", Text: "72 degrees"}},
				StructuredContent: map[string]any{"temperature": "72"},
			}, nil
		},
	}
	require.NoError(t, reg.RegisterTool(weather))

	e := New(reg, session.NewMemoryStore(0), ServerInfo{Name: "test", Version: "0.0.1"}, []string{"2025-06-18"}, nil)
	ctx := context.Background()
	notifier := &captureNotifier{}

	sess := e.Session(ctx, "sess-c")
	sess.SetProtocolVersion("2025-06-18")
	sess.MarkInitialized()

	req := jsonrpc.Message{
		Kind:   jsonrpc.KindRequest,
		ID:     jsonrpc.NewIntID(1),
		Method: "tools/call",
		Params: mustJSON(t, map[string]any{
			"name":      "get_weather",
			"arguments": map[string]any{"city": "SF"},
		}),
	}
	frame, ok := e.Dispatch(ctx, "sess-c", req, notifier)
	require.True(t, ok)

	var envelope struct {
		Error *jsonrpc.WireError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, jsonrpc.CodeToolOutputInvalid, envelope.Error.Code)
}

// TestScenarioResourceTemplateFallthrough mirrors Scenario D at the
// engine's resources/read entry point: a static resource misses, the
// first template returns resource_not_found, and the second template
// serves the request.
func TestScenarioResourceTemplateFallthrough(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterResource(&registry.Resource{
		Name:        "users",
		URITemplate: "users://{id}",
		Handler: func(ctx context.Context, uri string, frame registry.Frame) (registry.ResourceResult, *jsonrpc.WireError) {
			return registry.ResourceResult{}, jsonrpc.ResourceNotFound(uri)
		},
	}))
	require.NoError(t, reg.RegisterResource(&registry.Resource{
		Name:        "files",
		URITemplate: "files://{path}",
		Handler: func(ctx context.Context, uri string, frame registry.Frame) (registry.ResourceResult, *jsonrpc.WireError) {
			return registry.ResourceResult{Contents: []registry.ResourceContent{{URI: uri, MimeType: "text/plain", Text: "hi"}}}, nil
		},
	}))

	e := New(reg, session.NewMemoryStore(0), ServerInfo{Name: "test", Version: "0.0.1"}, []string{"2025-06-18"}, nil)
	ctx := context.Background()
	notifier := &captureNotifier{}

	sess := e.Session(ctx, "sess-d")
	sess.SetProtocolVersion("2025-06-18")
	sess.MarkInitialized()

	req := jsonrpc.Message{
		Kind:   jsonrpc.KindRequest,
		ID:     jsonrpc.NewIntID(1),
		Method: "resources/read",
		Params: mustJSON(t, map[string]any{"uri": "files://report.txt"}),
	}
	frame, ok := e.Dispatch(ctx, "sess-d", req, notifier)
	require.True(t, ok)

	var result struct {
		Contents []map[string]any `json:"contents"`
	}
	decodeResult(t, frame, &result)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "files://report.txt", result.Contents[0]["uri"])
}

// TestScenarioCancelledNotificationCompletesPendingRequest covers Scenario
// E / Testable Property 8: a notifications/cancelled for an in-flight
// request id clears it from the session's pending set.
func TestScenarioCancelledNotificationCompletesPendingRequest(t *testing.T) {
	reg := registry.New()
	blocking := &registry.Tool{
		Name:        "slow",
		InputSchema: schema.Schema{},
		Handler: func(ctx context.Context, params map[string]any, frame registry.Frame) (registry.ToolResult, *jsonrpc.WireError) {
			return registry.ToolResult{Content: []registry.ContentBlock{{Type: "text", Text: "done"}}}, nil
		},
	}
	require.NoError(t, reg.RegisterTool(blocking))

	e := New(reg, session.NewMemoryStore(0), ServerInfo{Name: "test", Version: "0.0.1"}, []string{"2025-06-18"}, nil)
	ctx := context.Background()
	notifier := &captureNotifier{}

	sess := e.Session(ctx, "sess-e")
	sess.SetProtocolVersion("2025-06-18")
	sess.MarkInitialized()
	sess.TrackRequest("7", "tools/call")

	notif := jsonrpc.Message{
		Kind:   jsonrpc.KindNotification,
		Method: "notifications/cancelled",
		Params: mustJSON(t, map[string]any{"requestId": "7", "reason": "client gave up"}),
	}
	_, ok := e.Dispatch(ctx, "sess-e", notif, notifier)
	assert.False(t, ok)
	assert.False(t, sess.HasPending("7"))
}
