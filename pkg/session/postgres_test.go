package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/parley/pkg/models"
	"github.com/codeready-toolchain/parley/pkg/session"
	"github.com/codeready-toolchain/parley/test/util"
)

func setupPostgresStore(t *testing.T) *session.PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}
	db := util.SetupTestDatabase(t)
	return session.NewPostgresStore(db)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupPostgresStore(t)

	msgs, err := store.GetMessages(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, store.Append(ctx, "s1", "first question", "first answer"))
	require.NoError(t, store.Append(ctx, "s1", "second question", "second answer"))

	msgs, err = store.GetMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "first question", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "first answer", msgs[1].Content)
	assert.Equal(t, "second question", msgs[2].Content)
	assert.Equal(t, "second answer", msgs[3].Content)

	count, err := store.MessageCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestPostgresStoreSessionIsolation(t *testing.T) {
	ctx := context.Background()
	store := setupPostgresStore(t)

	require.NoError(t, store.Append(ctx, "s1", "q1", "a1"))
	require.NoError(t, store.Append(ctx, "s2", "q2", "a2"))

	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

	msgs, err := store.GetMessages(ctx, "s2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "q2", msgs[0].Content)
}

func TestPostgresStoreClearAndDelete(t *testing.T) {
	ctx := context.Background()
	store := setupPostgresStore(t)

	require.NoError(t, store.Append(ctx, "s1", "q", "a"))
	require.NoError(t, store.Clear(ctx, "s1"))

	msgs, err := store.GetMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// The session remains addressable after a clear.
	require.NoError(t, store.Append(ctx, "s1", "q2", "a2"))
	count, err := store.MessageCount(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, store.Delete(ctx, "s1"))
	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, "s1")
}

func TestPostgresStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := setupPostgresStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Append(ctx, fmt.Sprintf("s%d", i%4), "q", "a")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err, "concurrent appends to one session must serialize, not collide")
	}

	total := 0
	ids, err := store.ListSessions(ctx)
	require.NoError(t, err)
	for _, id := range ids {
		count, err := store.MessageCount(ctx, id)
		require.NoError(t, err)
		assert.Zero(t, count%2, "appends are pairwise atomic")
		total += count
	}
	assert.Equal(t, 40, total)

	// seq stays dense per session, so every pair is readable in order.
	msgs, err := store.GetMessages(ctx, "s0")
	require.NoError(t, err)
	assert.Len(t, msgs, 10)
}
