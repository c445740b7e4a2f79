package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestEnsureUserCreatesAndReuses(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.EnsureUser(ctx, "+233551087418")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "en", created.PreferredLanguage)

	again, err := store.EnsureUser(ctx, "+233551087418")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

func TestSetPreferredLanguage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	u, err := store.EnsureUser(ctx, "+233200000001")
	require.NoError(t, err)
	require.NoError(t, store.SetPreferredLanguage(ctx, u.ID, "tw"))

	again, err := store.EnsureUser(ctx, "+233200000001")
	require.NoError(t, err)
	assert.Equal(t, "tw", again.PreferredLanguage)
}

func TestActiveConversationReused(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	u, err := store.EnsureUser(ctx, "+233200000002")
	require.NoError(t, err)

	first, err := store.ActiveConversation(ctx, u.ID)
	require.NoError(t, err)
	second, err := store.ActiveConversation(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAppendAndRecentMessages(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	u, err := store.EnsureUser(ctx, "+233200000003")
	require.NoError(t, err)
	conv, err := store.ActiveConversation(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, store.AppendMessage(ctx, conv.ID, "user", "How do I plant cassava?", "en"))
	require.NoError(t, store.AppendMessage(ctx, conv.ID, "assistant", "Use stem cuttings.", "en"))

	messages, err := store.RecentMessages(ctx, conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)

	conv, err = store.ActiveConversation(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, conv.MessageCount)
}
