package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load/Update when the id has no entry.
var ErrNotFound = errors.New("session: not found")

// ErrDecodeError is returned by Load when a stored entry cannot be
// interpreted as session State.
var ErrDecodeError = errors.New("session: decode error")

// State is the persisted, wire-agnostic snapshot of a Session, matching
// the field set spec.md §6 lists for "Persisted state layout": id,
// protocol_version, initialized, client_info, client_capabilities,
// log_level, pending_requests. Implementations choose their own encoding;
// JSON is recommended. The in-memory store keeps State values as they are,
// without encoding them.
type State struct {
	ID                 string                    `json:"id"`
	ProtocolVersion    string                    `json:"protocol_version"`
	Initialized        bool                      `json:"initialized"`
	ClientInfo         ClientInfo                `json:"client_info"`
	ClientCapabilities map[string]any            `json:"client_capabilities"`
	LogLevel           string                    `json:"log_level"`
	PendingRequests    map[string]PendingRequest `json:"pending_requests"`
}

func stateFromSession(s *Session) State {
	return State{
		ID:                 s.ID,
		ProtocolVersion:    s.ProtocolVersion,
		Initialized:        s.Initialized,
		ClientInfo:         s.ClientInfo,
		ClientCapabilities: s.ClientCapabilities,
		LogLevel:           s.LogLevel,
		PendingRequests:    s.PendingRequests,
	}
}

func sessionFromState(st State) *Session {
	s := NewSession(st.ID)
	s.ProtocolVersion = st.ProtocolVersion
	s.Initialized = st.Initialized
	s.ClientInfo = st.ClientInfo
	s.ClientCapabilities = st.ClientCapabilities
	if st.LogLevel != "" {
		s.LogLevel = st.LogLevel
	}
	if st.PendingRequests != nil {
		s.PendingRequests = st.PendingRequests
	}
	return s
}

// Store is the session persistence interface from spec.md §4.6. TTLs are
// expressed in milliseconds throughout per §9's open-question resolution
// (the teacher's Redis references carried two conflicting unit
// conventions; this interface standardizes on milliseconds).
type Store interface {
	Save(ctx context.Context, id string, state State, ttlMs int64) error
	Load(ctx context.Context, id string) (State, error)
	Delete(ctx context.Context, id string) error
	// Update performs a last-write-wins merge of updates into the stored
	// state. Sessions are single-writer in practice, so no CAS token is
	// required.
	Update(ctx context.Context, id string, updates map[string]any, ttlMs int64) error
	ListActive(ctx context.Context, server string) ([]string, error)
	UpdateTTL(ctx context.Context, id string, ttlMs int64) error
	// CleanupExpired sweeps expired entries and returns how many were
	// removed. Stores with intrinsic expiry may return 0 and do nothing.
	CleanupExpired(ctx context.Context) (int, error)
}

// defaultTTL is used when callers pass ttlMs<=0.
const defaultTTL = 24 * time.Hour
