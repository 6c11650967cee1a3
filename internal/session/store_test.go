package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()

	s1 := State{ID: "x", LogLevel: "info"}
	s2 := State{ID: "x", LogLevel: "debug"}

	require.NoError(t, store.Save(ctx, "x", s1, 0))
	require.NoError(t, store.Save(ctx, "x", s2, 0))

	got, err := store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "debug", got.LogLevel)

	require.NoError(t, store.Update(ctx, "x", map[string]any{"log_level": "warning"}, 0))
	got, err = store.Load(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "warning", got.LogLevel)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "x", State{ID: "x"}, 1))
	time.Sleep(5 * time.Millisecond)

	_, err := store.Load(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := store.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, 0)
}

func TestActorTrackAndCompleteRequest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()

	actor := NewActor(ctx, "sess-1", store, 0, nil)
	defer actor.Close()

	actor.SetProtocolVersion("2025-03-26")
	actor.TrackRequest("r1", "tools/call")
	assert.True(t, actor.HasPending("r1"))

	actor.CompleteRequest("r1")
	assert.False(t, actor.HasPending("r1"))

	actor.MarkInitialized()
	snap := actor.Get()
	assert.True(t, snap.Initialized)
	assert.Equal(t, "2025-03-26", snap.ProtocolVersion)
}

func TestActorRestoresFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "sess-2", State{
		ID:              "sess-2",
		Initialized:     true,
		LogLevel:        "debug",
		PendingRequests: map[string]PendingRequest{},
	}, 0))

	actor := NewActor(ctx, "sess-2", store, 0, nil)
	defer actor.Close()

	snap := actor.Get()
	assert.True(t, snap.Initialized)
	assert.Equal(t, "debug", snap.LogLevel)
}
