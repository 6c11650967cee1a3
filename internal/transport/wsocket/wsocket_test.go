package wsocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplexRoundTrip(t *testing.T) {
	tr := New("", "", nil, nil)
	received := make(chan []byte, 1)
	var capturedSessionID string

	tr.onFrame = func(ctx context.Context, sessionID string, frame []byte) {
		capturedSessionID = sessionID
		received <- frame
	}

	mux := http.NewServeMux()
	mux.HandleFunc(tr.BasePath+DefaultPathSuffix, func(w http.ResponseWriter, r *http.Request) {
		tr.handleUpgrade(context.Background(), w, r)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + tr.BasePath + DefaultPathSuffix
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"ping"}`)))

	select {
	case frame := <-received:
		assert.Contains(t, string(frame), `"method":"ping"`)
		assert.NotEmpty(t, capturedSessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received websocket frame")
	}
}

func TestSendDeliversToConnectedSession(t *testing.T) {
	tr := New("", "", nil, nil)
	tr.onFrame = func(ctx context.Context, sessionID string, frame []byte) {
		_ = tr.Send(ctx, sessionID, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`), time.Second)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(tr.BasePath+DefaultPathSuffix, func(w http.ResponseWriter, r *http.Request) {
		tr.handleUpgrade(context.Background(), w, r)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + tr.BasePath + DefaultPathSuffix
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"result"`)
}

func TestSupportedProtocolVersionsIncludesAll(t *testing.T) {
	tr := New("", "", nil, nil)
	assert.ElementsMatch(t, []string{"2024-11-05", "2025-03-26", "2025-06-18"}, tr.SupportedProtocolVersions())
}
