package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/yelpnavigator/store"
	"github.com/smallnest/yelpnavigator/store/storetest"
)

func newTestStore(t *testing.T) *SqliteCheckpointStore {
	t.Helper()
	s, err := NewSqliteCheckpointStore(SqliteOptions{
		Path: filepath.Join(t.TempDir(), "checkpoints.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteCheckpointStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.CheckpointStore {
		return newTestStore(t)
	})
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "checkpoints.db")

	s1, err := NewSqliteCheckpointStore(SqliteOptions{Path: path})
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, &store.Checkpoint{
		ID:       "cp1",
		ThreadID: "t1",
		NodeName: "search",
		State:    json.RawMessage(`{"done":true}`),
		Version:  1,
	}))
	require.NoError(t, s1.Close())

	s2, err := NewSqliteCheckpointStore(SqliteOptions{Path: path})
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetLatestByThread(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "cp1", got.ID)
	assert.JSONEq(t, `{"done":true}`, string(got.State))
}

func TestCustomTableName(t *testing.T) {
	ctx := context.Background()
	s, err := NewSqliteCheckpointStore(SqliteOptions{
		Path:      filepath.Join(t.TempDir(), "checkpoints.db"),
		TableName: "agent_state",
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(ctx, &store.Checkpoint{
		ID:       "cp1",
		ThreadID: "t1",
		State:    json.RawMessage(`{}`),
		Version:  1,
	}))
	got, err := s.Load(ctx, "cp1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ThreadID)
}
