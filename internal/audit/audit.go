// Package audit records structured audit events for the protocol engine.
// It is adapted from dkmcp/internal/audit/logger.go: same EventType/Result
// taxonomy and slog.JSONHandler-backed Logger, repointed from Docker
// container operations at protocol-engine operations (session lifecycle,
// tool invocation, capability/authorization decisions).
package audit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fenwicklabs/mcprt/internal/redact"
)

type EventType string

const (
	EventToolCall          EventType = "tool_call"
	EventAccessDenied      EventType = "access_denied"
	EventSessionConnect    EventType = "session_connect"
	EventSessionDisconnect EventType = "session_disconnect"
	EventCapabilityDenied  EventType = "capability_denied"
	EventInitialize        EventType = "initialize"
)

type Result string

const (
	ResultSuccess Result = "success"
	ResultDenied  Result = "denied"
	ResultError   Result = "error"
)

// Event is one audit record.
type Event struct {
	Type         EventType
	Method       string
	SessionID    string
	ClientName   string
	Result       Result
	Details      map[string]any
	DurationMs   int64
	ErrorMessage string
}

// Config controls which event categories are recorded, mirroring the
// teacher's AuditConfig.Events toggle group.
type Config struct {
	Enabled  bool
	File     string
	ToolCall bool
	Access   bool
	Session  bool
}

// Logger is the audit sink.
type Logger struct {
	cfg     Config
	logger  *slog.Logger
	scrub   *redact.Scrubber
	mu      sync.Mutex
	file    *os.File
}

// New builds a Logger from Config, opening the configured file (if any)
// for append.
func New(cfg Config, scrub *redact.Scrubber) (*Logger, error) {
	l := &Logger{cfg: cfg, scrub: scrub}

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		l.file = f
		output = f
	}

	l.logger = slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return l, nil
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) shouldLog(t EventType) bool {
	switch t {
	case EventToolCall:
		return l.cfg.ToolCall
	case EventAccessDenied, EventCapabilityDenied:
		return l.cfg.Access
	case EventSessionConnect, EventSessionDisconnect, EventInitialize:
		return l.cfg.Session
	default:
		return true
	}
}

// Log records an event, applying redaction to any string detail before it
// hits the sink.
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil || !l.cfg.Enabled || !l.shouldLog(event.Type) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	attrs := []any{slog.String("event_type", string(event.Type))}
	if event.Method != "" {
		attrs = append(attrs, slog.String("method", event.Method))
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}
	if event.ClientName != "" {
		attrs = append(attrs, slog.String("client_name", event.ClientName))
	}
	if event.Result != "" {
		attrs = append(attrs, slog.String("result", string(event.Result)))
	}
	if event.DurationMs > 0 {
		attrs = append(attrs, slog.Int64("duration_ms", event.DurationMs))
	}
	errMsg := event.ErrorMessage
	if l.scrub != nil {
		errMsg = l.scrub.Scrub(errMsg)
	}
	if errMsg != "" {
		attrs = append(attrs, slog.String("error", errMsg))
	}
	if len(event.Details) > 0 {
		details := event.Details
		if l.scrub != nil {
			details = l.scrub.ScrubFields(details)
		}
		attrs = append(attrs, slog.Any("details", details))
	}

	l.logger.InfoContext(ctx, "audit_event", attrs...)
}

// MeasureDuration is a helper for timing an operation before logging it.
func MeasureDuration(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
