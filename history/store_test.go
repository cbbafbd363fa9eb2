package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cubiaa/waste-yolo/waste"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_SaveAndRecent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	older := NewEntry("video", time.Now().Add(-time.Minute), []waste.Object{
		{Class: "paper", Confidence: 0.8, Box: [4]float32{1, 2, 3, 4}, Category: waste.Recycle},
	})
	newer := NewEntry("webcam", time.Now(), []waste.Object{
		{Class: "jar", Confidence: 0.6, Category: waste.Reuse},
		{Class: "food", Confidence: 0.7, Category: waste.Reduce},
	})

	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))
	require.NoError(t, store.Save(ctx, newer), "duplicate IDs are ignored")

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, newer.ID, entries[0].ID)
	assert.Equal(t, "webcam", entries[0].Mode)
	assert.Len(t, entries[0].Objects, 2)
	assert.Equal(t, waste.Reduce, entries[0].Objects[1].Category)

	assert.Equal(t, older.ID, entries[1].ID)
	assert.Equal(t, [4]float32{1, 2, 3, 4}, entries[1].Objects[0].Box)
	assert.WithinDuration(t, older.Time, entries[1].Time, time.Second)

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_Prune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewEntry("video", time.Now().Add(-48*time.Hour), objects("old"))))
	require.NoError(t, store.Save(ctx, NewEntry("video", time.Now(), objects("fresh"))))

	removed, err := store.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
