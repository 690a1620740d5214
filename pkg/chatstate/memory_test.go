package chatstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casepulse-ai/casepulse-engine/pkg/models"
)

func TestMemoryStoreContextRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	chatCtx := models.NewChatContext()
	chatCtx.SetLock("person", "ana lopez", true)
	chatCtx.LastPerson = "ana lopez"
	require.NoError(t, s.SetContext(ctx, "sess-1", chatCtx))

	got, err := s.GetContext(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "ana lopez", got.LastPerson)
	assert.Equal(t, models.FilterLock{Value: "ana lopez", Locked: true, Exact: true}, got.Filters["person"])
}

func TestMemoryStoreUnknownSessionIsFresh(t *testing.T) {
	s := NewMemoryStore(time.Minute)

	got, err := s.GetContext(context.Background(), "nope")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got.Filters)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	chatCtx := models.NewChatContext()
	chatCtx.SetLock("office", "Miami", true)
	require.NoError(t, s.SetContext(ctx, "sess-1", chatCtx))

	// Mutating what we stored or what we read must not leak into the store.
	chatCtx.SetLock("office", "Orlando", true)
	first, err := s.GetContext(ctx, "sess-1")
	require.NoError(t, err)
	first.ClearLock("office")

	second, err := s.GetContext(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Miami", second.Filters["office"].Value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(30 * time.Millisecond)
	ctx := context.Background()

	chatCtx := models.NewChatContext()
	chatCtx.SetLock("person", "ana", false)
	require.NoError(t, s.SetContext(ctx, "sess-1", chatCtx))
	require.NoError(t, s.SetPending(ctx, "sess-1", pendingFixture()))

	time.Sleep(60 * time.Millisecond)

	got, err := s.GetContext(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, got.Filters, "expired session starts fresh")

	pick, err := s.GetPending(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, pick)
}

func TestMemoryStorePendingLifecycle(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	ctx := context.Background()

	pick, err := s.GetPending(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, pick)

	require.NoError(t, s.SetPending(ctx, "sess-1", pendingFixture()))
	pick, err = s.GetPending(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, pick)
	assert.Len(t, pick.Options, 3)

	require.NoError(t, s.ClearPending(ctx, "sess-1"))
	pick, err = s.GetPending(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, pick)
}
