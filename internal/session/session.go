// Package session implements the per-client Session data model (spec.md
// §3), the pluggable session store (§4.6), and the single-writer session
// actor (§4.5). The actor model follows the design note in spec.md §9:
// "goroutines + dedicated mailbox channels (Go)" rather than shared
// mutable memory guarded by a lock, mirroring the teacher's
// clientsMu-guarded map in dkmcp/internal/mcp/server.go but pushed down to
// per-session granularity.
package session

import "time"

// PendingRequest tracks one in-flight request the session initiated or is
// servicing, per spec.md §3.
type PendingRequest struct {
	Method    string
	StartedAt time.Time
}

// ClientInfo identifies the connecting client, supplied during initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Session is one connected client's state, server side.
type Session struct {
	ID                 string
	ProtocolVersion    string
	Initialized        bool
	ClientInfo         ClientInfo
	ClientCapabilities map[string]any
	LogLevel           string
	PendingRequests    map[string]PendingRequest
}

// NewSession creates a fresh session with spec.md §3's documented default
// log level.
func NewSession(id string) *Session {
	return &Session{
		ID:              id,
		LogLevel:        "info",
		PendingRequests: map[string]PendingRequest{},
	}
}

// clone returns a deep-enough copy for safe hand-off outside the actor.
func (s *Session) clone() *Session {
	cp := *s
	cp.PendingRequests = make(map[string]PendingRequest, len(s.PendingRequests))
	for k, v := range s.PendingRequests {
		cp.PendingRequests[k] = v
	}
	if s.ClientCapabilities != nil {
		cp.ClientCapabilities = make(map[string]any, len(s.ClientCapabilities))
		for k, v := range s.ClientCapabilities {
			cp.ClientCapabilities[k] = v
		}
	}
	return &cp
}

// logLevelRank orders severities per spec.md §4.8 so a server can decide
// whether a log record is at or above a session's configured level.
var logLevelRank = map[string]int{
	"debug":     0,
	"info":      1,
	"notice":    2,
	"warning":   3,
	"error":     4,
	"critical":  5,
	"alert":     6,
	"emergency": 7,
}

// LogLevelAtLeast reports whether level is at or above threshold in the
// debug<info<notice<...<emergency ordering.
func LogLevelAtLeast(level, threshold string) bool {
	lv, ok1 := logLevelRank[level]
	th, ok2 := logLevelRank[threshold]
	if !ok1 || !ok2 {
		return true
	}
	return lv >= th
}
