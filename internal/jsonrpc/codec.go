package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeRequest builds a JSON-RPC request frame.
func EncodeRequest(method string, params any, id ID) ([]byte, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      ID              `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}{Version, id, method, raw})
}

// EncodeNotification builds a JSON-RPC notification frame (no id).
func EncodeNotification(method string, params any) ([]byte, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}{Version, method, raw})
}

// EncodeResponse builds a JSON-RPC success response frame.
func EncodeResponse(result any, id ID) ([]byte, error) {
	raw, err := marshalParams(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      ID              `json:"id"`
		Result  json.RawMessage `json:"result"`
	}{Version, id, raw})
}

// EncodeError builds a JSON-RPC error response frame.
func EncodeError(werr *WireError, id ID) ([]byte, error) {
	return json.Marshal(struct {
		JSONRPC string     `json:"jsonrpc"`
		ID      ID         `json:"id"`
		Error   *WireError `json:"error"`
	}{Version, id, werr})
}

// EncodeBatch wraps several already-encoded frames into a JSON array.
func EncodeBatch(frames [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, f := range frames {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(f)
	}
	buf.WriteByte(']')
	if !json.Valid(buf.Bytes()) {
		return nil, fmt.Errorf("jsonrpc: batch produced invalid json")
	}
	return buf.Bytes(), nil
}

func marshalParams(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Decode accepts a single object, a batch array, or several newline
// separated objects (blank lines ignored) and returns the flat list of
// classified messages. Decode never panics or returns a wire-crossing
// exception; malformed input is converted to a synthetic KindUnknown
// message carrying a parse error so callers can still reply.
func Decode(data []byte) []Message {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return []Message{parseErrorMessage(trimmed, err)}
		}
		msgs := make([]Message, 0, len(raws))
		for _, r := range raws {
			msgs = append(msgs, decodeOne(r))
		}
		return msgs
	}

	var msgs []Message
	for _, line := range splitObjects(trimmed) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		msgs = append(msgs, decodeOne(line))
	}
	if len(msgs) == 0 {
		return []Message{parseErrorMessage(trimmed, fmt.Errorf("no JSON object found"))}
	}
	return msgs
}

func decodeOne(raw json.RawMessage) Message {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return parseErrorMessage(raw, err)
	}
	if e.JSONRPC != "" && e.JSONRPC != Version {
		return Message{
			Kind: KindUnknown,
			Raw:  raw,
			Error: NewError(CodeInvalidRequest, fmt.Sprintf("unsupported jsonrpc version %q", e.JSONRPC), nil),
		}
	}
	return fromEnvelope(raw, e)
}

func parseErrorMessage(raw json.RawMessage, err error) Message {
	return Message{
		Kind:  KindUnknown,
		Raw:   raw,
		Error: ParseError(err.Error()),
	}
}

// splitObjects scans a byte stream for top-level JSON objects separated by
// whitespace, tolerating newline-delimited concatenation without requiring
// a trailing separator on the last one. It tracks brace depth and string
// quoting so that braces embedded in string values don't confuse the split.
func splitObjects(data []byte) [][]byte {
	var out [][]byte
	depth := 0
	inString := false
	escaped := false
	start := -1

	for i, b := range data {
		if start == -1 {
			if b == '{' {
				start = i
				depth = 1
				inString = false
				escaped = false
			}
			continue
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				out = append(out, data[start:i+1])
				start = -1
			}
		}
	}
	return out
}
