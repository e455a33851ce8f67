package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candlebliss-api/internal/config"
	"candlebliss-api/internal/model"
)

func TestValidateHistory(t *testing.T) {
	v, err := validateHistory(model.HistoryGiftSearch, "  nến thơm ")
	require.NoError(t, err)
	assert.Equal(t, "nến thơm", v)

	_, err = validateHistory(model.HistoryKind("cart"), "x")
	assert.ErrorIs(t, err, ErrInvalidHistoryKind)

	_, err = validateHistory(model.HistoryGiftView, "   ")
	assert.ErrorIs(t, err, ErrInvalidHistoryValue)

	_, err = validateHistory(model.HistoryGiftView, strings.Repeat("ế", MaxHistoryValueLength+1))
	assert.ErrorIs(t, err, ErrInvalidHistoryValue)
}

func newTestHistory(t *testing.T) *HistoryRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := config.ConnectDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, config.RunMigrations(ctx, pool))

	repo := NewHistoryRepository(pool)
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo
}

func TestHistoryLRUTruncation(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()
	userID := time.Now().UnixNano()
	t.Cleanup(func() { _ = repo.Clear(ctx, userID, model.HistoryGiftSearch) })

	for i := 0; i < 25; i++ {
		require.NoError(t, repo.Touch(ctx, userID, model.HistoryGiftSearch, fmt.Sprintf("q%d", i)))
	}

	entries, err := repo.List(ctx, userID, model.HistoryGiftSearch)
	require.NoError(t, err)
	require.Len(t, entries, 20)
	assert.Equal(t, "q24", entries[0].Value)
	assert.Equal(t, "q5", entries[19].Value)

	// Re-touching moves an entry to the front and keeps the list size
	require.NoError(t, repo.Touch(ctx, userID, model.HistoryGiftSearch, "q5"))
	entries, err = repo.List(ctx, userID, model.HistoryGiftSearch)
	require.NoError(t, err)
	require.Len(t, entries, 20)
	assert.Equal(t, "q5", entries[0].Value)
	assert.Equal(t, "q6", entries[19].Value)
}

func TestHistoryKindsAreSeparate(t *testing.T) {
	repo := newTestHistory(t)
	ctx := context.Background()
	userID := time.Now().UnixNano()
	t.Cleanup(func() {
		_ = repo.Clear(ctx, userID, model.HistoryGiftSearch)
		_ = repo.Clear(ctx, userID, model.HistoryGiftView)
	})

	require.NoError(t, repo.Touch(ctx, userID, model.HistoryGiftView, "12"))
	require.NoError(t, repo.Touch(ctx, userID, model.HistoryGiftSearch, "hộp quà"))

	views, err := repo.List(ctx, userID, model.HistoryGiftView)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "12", views[0].Value)

	require.NoError(t, repo.Clear(ctx, userID, model.HistoryGiftView))
	views, err = repo.List(ctx, userID, model.HistoryGiftView)
	require.NoError(t, err)
	assert.Empty(t, views)
}
