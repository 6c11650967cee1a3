package audit

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, cfg Config) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := &Logger{cfg: cfg, logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	return l, &buf
}

func TestLogSkippedWhenDisabled(t *testing.T) {
	l, buf := newTestLogger(t, Config{Enabled: false})
	l.Log(context.Background(), Event{Type: EventToolCall, Result: ResultSuccess})
	assert.Empty(t, buf.String())
}

func TestLogToolCall(t *testing.T) {
	l, buf := newTestLogger(t, Config{Enabled: true, ToolCall: true})
	l.Log(context.Background(), Event{Type: EventToolCall, Method: "tools/call", Result: ResultSuccess})
	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "tool_call")
}

func TestLogRespectsCategoryToggle(t *testing.T) {
	l, buf := newTestLogger(t, Config{Enabled: true, ToolCall: false, Session: true})
	l.Log(context.Background(), Event{Type: EventToolCall, Result: ResultSuccess})
	assert.Empty(t, buf.String())

	l.Log(context.Background(), Event{Type: EventSessionConnect, Result: ResultSuccess})
	assert.Contains(t, buf.String(), "session_connect")
}
