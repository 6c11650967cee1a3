package streamhttp

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T) (*Transport, *httptest.Server) {
	t.Helper()
	tr := New("", nil)
	mux := http.NewServeMux()
	mux.HandleFunc(tr.Path, tr.handle)
	srv := httptest.NewServer(mux)

	tr.mu.Lock()
	tr.onFrame = func(ctx context.Context, sessionID string, frame []byte) {}
	tr.mu.Unlock()

	t.Cleanup(func() {
		srv.Close()
		_ = tr.Shutdown(context.Background())
	})
	return tr, srv
}

func TestPostWithoutSessionCreatesOneAndReturns202(t *testing.T) {
	tr, srv := newTestTransport(t)

	resp, err := http.Post(srv.URL+tr.Path, "application/json", bytes.NewReader([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(tr.SessionHeader))
}

func TestPostWithUnknownSessionIsNotFound(t *testing.T) {
	tr, srv := newTestTransport(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+tr.Path, bytes.NewReader([]byte(`{"jsonrpc":"2.0","method":"ping"}`)))
	require.NoError(t, err)
	req.Header.Set(tr.SessionHeader, "does-not-exist")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostReturnsQueuedResponseSynchronously(t *testing.T) {
	tr, srv := newTestTransport(t)

	tr.mu.Lock()
	tr.onFrame = func(ctx context.Context, sessionID string, frame []byte) {
		_ = tr.Send(ctx, sessionID, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`), time.Second)
	}
	tr.mu.Unlock()

	resp, err := http.Post(srv.URL+tr.Path, "application/json", bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteTerminatesSession(t *testing.T) {
	tr, srv := newTestTransport(t)

	resp, err := http.Post(srv.URL+tr.Path, "application/json", bytes.NewReader([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	require.NoError(t, err)
	sessionID := resp.Header.Get(tr.SessionHeader)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+tr.Path, nil)
	require.NoError(t, err)
	req.Header.Set(tr.SessionHeader, sessionID)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	req2, _ := http.NewRequest(http.MethodDelete, srv.URL+tr.Path, nil)
	req2.Header.Set(tr.SessionHeader, sessionID)
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
