// Package storetest provides a conformance suite shared by the checkpoint
// store backends.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/yelpnavigator/store"
)

// Run exercises the store.CheckpointStore contract against a fresh backend
// instance.
func Run(t *testing.T, newStore func(t *testing.T) store.CheckpointStore) {
	t.Run("SaveAndLoad", func(t *testing.T) { testSaveAndLoad(t, newStore(t)) })
	t.Run("LoadMissing", func(t *testing.T) { testLoadMissing(t, newStore(t)) })
	t.Run("Upsert", func(t *testing.T) { testUpsert(t, newStore(t)) })
	t.Run("ListOrdersByVersion", func(t *testing.T) { testListOrder(t, newStore(t)) })
	t.Run("GetLatestByThread", func(t *testing.T) { testGetLatest(t, newStore(t)) })
	t.Run("ThreadIsolation", func(t *testing.T) { testThreadIsolation(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Clear", func(t *testing.T) { testClear(t, newStore(t)) })
}

func checkpoint(id, threadID string, version int) *store.Checkpoint {
	return &store.Checkpoint{
		ID:        id,
		ThreadID:  threadID,
		NodeName:  "search",
		State:     json.RawMessage(fmt.Sprintf(`{"version":%d}`, version)),
		Metadata:  map[string]any{"event": "step"},
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Version:   version,
	}
}

func testSaveAndLoad(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()
	cp := checkpoint("cp1", "t1", 1)
	require.NoError(t, s.Save(ctx, cp))

	got, err := s.Load(ctx, "cp1")
	require.NoError(t, err)
	assert.Equal(t, cp.ID, got.ID)
	assert.Equal(t, cp.ThreadID, got.ThreadID)
	assert.Equal(t, cp.NodeName, got.NodeName)
	assert.JSONEq(t, string(cp.State), string(got.State))
	assert.Equal(t, cp.Version, got.Version)
}

func testLoadMissing(t *testing.T, s store.CheckpointStore) {
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testUpsert(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, checkpoint("cp1", "t1", 1)))

	updated := checkpoint("cp1", "t1", 1)
	updated.NodeName = "details"
	require.NoError(t, s.Save(ctx, updated))

	got, err := s.Load(ctx, "cp1")
	require.NoError(t, err)
	assert.Equal(t, "details", got.NodeName)

	cps, err := s.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, cps, 1)
}

func testListOrder(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()
	// Saved out of order on purpose.
	require.NoError(t, s.Save(ctx, checkpoint("cp2", "t1", 2)))
	require.NoError(t, s.Save(ctx, checkpoint("cp1", "t1", 1)))
	require.NoError(t, s.Save(ctx, checkpoint("cp3", "t1", 3)))

	cps, err := s.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, cps, 3)
	for i, cp := range cps {
		assert.Equal(t, i+1, cp.Version)
	}
}

func testGetLatest(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()

	_, err := s.GetLatestByThread(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Save(ctx, checkpoint("cp1", "t1", 1)))
	require.NoError(t, s.Save(ctx, checkpoint("cp2", "t1", 2)))

	latest, err := s.GetLatestByThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cp2", latest.ID)
	assert.Equal(t, 2, latest.Version)
}

func testThreadIsolation(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, checkpoint("cp1", "t1", 1)))
	require.NoError(t, s.Save(ctx, checkpoint("cp2", "t2", 1)))

	cps, err := s.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, "cp1", cps[0].ID)

	latest, err := s.GetLatestByThread(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "cp2", latest.ID)
}

func testDelete(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, checkpoint("cp1", "t1", 1)))
	require.NoError(t, s.Delete(ctx, "cp1"))

	_, err := s.Load(ctx, "cp1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	cps, err := s.List(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, cps)

	// Deleting a missing checkpoint is not an error.
	assert.NoError(t, s.Delete(ctx, "cp1"))
}

func testClear(t *testing.T, s store.CheckpointStore) {
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, checkpoint("cp1", "t1", 1)))
	require.NoError(t, s.Save(ctx, checkpoint("cp2", "t1", 2)))
	require.NoError(t, s.Save(ctx, checkpoint("cp3", "t2", 1)))

	require.NoError(t, s.Clear(ctx, "t1"))

	cps, err := s.List(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, cps)

	latest, err := s.GetLatestByThread(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "cp3", latest.ID)
}
