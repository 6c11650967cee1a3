// Package jsonrpc implements the JSON-RPC 2.0 message codec used by both
// sides of the protocol engine: encoding requests, responses, errors and
// notifications, and decoding a byte stream that may carry a single object,
// a batch array, or several newline-delimited objects.
package jsonrpc

import "encoding/json"

// Version is the literal JSON-RPC version string stamped on every frame.
const Version = "2.0"

// ID is a JSON-RPC request/response identifier. The wire format allows
// either a string or a number; ID preserves whichever was sent so a
// server always echoes the exact type back to the caller.
type ID struct {
	raw json.RawMessage
}

// NewStringID wraps a string request id.
func NewStringID(s string) ID {
	b, _ := json.Marshal(s)
	return ID{raw: b}
}

// NewIntID wraps an integer request id.
func NewIntID(n int64) ID {
	b, _ := json.Marshal(n)
	return ID{raw: b}
}

// IsZero reports whether the id was never set (distinct from a zero int id).
func (id ID) IsZero() bool { return id.raw == nil }

// String renders the id for logging, independent of its wire type.
func (id ID) String() string {
	if id.raw == nil {
		return "<none>"
	}
	return string(id.raw)
}

// MarshalJSON implements json.Marshaler, emitting the id verbatim.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.raw == nil {
		return []byte("null"), nil
	}
	return id.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving the original type.
func (id *ID) UnmarshalJSON(data []byte) error {
	id.raw = append([]byte(nil), data...)
	return nil
}

// Equal reports whether two ids carry the same wire representation.
func (id ID) Equal(other ID) bool {
	return string(id.raw) == string(other.raw)
}

// envelope is the superset wire shape used for decoding; classification
// happens after unmarshaling by inspecting which fields are present.
type envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *WireError      `json:"error,omitempty"`
}

// Kind classifies a decoded message per spec: request, response, error, or
// notification.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequest
	KindResponse
	KindError
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindError:
		return "error"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Message is a decoded JSON-RPC frame with its classification resolved.
type Message struct {
	Kind    Kind
	ID      ID
	Method  string
	Params  json.RawMessage
	Result  json.RawMessage
	Error   *WireError
	Raw     json.RawMessage
}

func classify(e envelope) Kind {
	switch {
	case e.Method != "" && e.ID != nil:
		return KindRequest
	case e.ID != nil && e.Error != nil:
		return KindError
	case e.ID != nil && e.Result != nil:
		return KindResponse
	case e.Method != "" && e.ID == nil:
		return KindNotification
	default:
		return KindUnknown
	}
}

func fromEnvelope(raw json.RawMessage, e envelope) Message {
	m := Message{
		Kind:   classify(e),
		Method: e.Method,
		Params: e.Params,
		Result: e.Result,
		Error:  e.Error,
		Raw:    raw,
	}
	if e.ID != nil {
		m.ID = *e.ID
	}
	return m
}
