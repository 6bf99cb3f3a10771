package scores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amalg/go-tetris/internal/game"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("alice", game.Stats{Cleared: 3, OneLine: 1, TwoLine: 1})
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "alice", r.Player)
	assert.True(t, r.Worth())
	assert.False(t, NewRecord("bob", game.Stats{}).Worth())
	assert.NotEqual(t, r.ID, NewRecord("alice", r.Stats).ID)
}

func TestSaveAndTop(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []Record{
		{ID: "a", Player: "alice", Stats: game.Stats{Cleared: 4, FourLine: 1}, PlayedAt: base},
		{ID: "b", Player: "bob", Stats: game.Stats{Cleared: 9, OneLine: 1, TwoLine: 4}, PlayedAt: base.Add(time.Minute)},
		{ID: "c", Player: "carol", Stats: game.Stats{Cleared: 4, TwoLine: 2}, PlayedAt: base.Add(-time.Minute)},
	}
	for _, r := range records {
		require.NoError(t, store.Save(ctx, r))
	}

	top, err := store.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, records[1], top[0])
	assert.Equal(t, records[2], top[1], "ties go to the earlier game")

	all, err := store.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSaveReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	r := NewRecord("alice", game.Stats{Cleared: 1, OneLine: 1})
	require.NoError(t, store.Save(ctx, r))
	r.Stats = game.Stats{Cleared: 2, OneLine: 2}
	require.NoError(t, store.Save(ctx, r))

	top, err := store.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].Stats.Cleared)
}

func TestSaveRequiresID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Save(context.Background(), Record{Player: "x"}))
}

func TestReopenKeepsScores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scores.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, NewRecord("alice", game.Stats{Cleared: 2, TwoLine: 1})))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	top, err := store.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Player)
}
