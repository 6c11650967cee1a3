package ssehttp

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointBootstrapAndMessageRoundTrip(t *testing.T) {
	tr := New("", nil)
	mux := http.NewServeMux()
	mux.HandleFunc(tr.SSEPath, tr.handleSSE)
	mux.HandleFunc(tr.MessagePath, tr.handleMessage)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	received := make(chan string, 1)
	tr.mu.Lock()
	tr.onFrame = func(ctx context.Context, sessionID string, frame []byte) {
		received <- string(frame)
		_ = tr.Send(ctx, sessionID, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`), time.Second)
	}
	tr.mu.Unlock()

	req, err := http.NewRequest(http.MethodGet, srv.URL+tr.SSEPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var endpointData string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") && endpointData == "" {
			endpointData = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}
	require.NotEmpty(t, endpointData)
	assert.Contains(t, endpointData, "sessionId=")

	postResp, err := http.Post(srv.URL+endpointData, "application/json", bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))
	require.NoError(t, err)
	defer postResp.Body.Close()
	assert.Equal(t, http.StatusAccepted, postResp.StatusCode)

	select {
	case frame := <-received:
		assert.Contains(t, frame, `"method":"ping"`)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received posted message")
	}
}

func TestMessageToUnknownSessionIsNotFound(t *testing.T) {
	tr := New("", nil)
	mux := http.NewServeMux()
	mux.HandleFunc(tr.MessagePath, tr.handleMessage)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+tr.MessagePath+"?sessionId=bogus", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveEndpointURLHandlesAbsoluteRelativeAndDuplicatePrefix(t *testing.T) {
	resolved, err := resolveEndpointURL("http://localhost:8080", "/message?sessionId=abc")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/message?sessionId=abc", resolved)

	resolved, err = resolveEndpointURL("http://localhost:8080", "http://localhost:8080/message?sessionId=abc")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/message?sessionId=abc", resolved)

	resolved, err = resolveEndpointURL("http://localhost:8080/api", "/api/message?sessionId=abc")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/message?sessionId=abc", resolved)
}
