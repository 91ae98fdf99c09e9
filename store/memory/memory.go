// Package memory provides an in-memory checkpoint store for development and
// tests. Contents are lost on process restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/smallnest/yelpnavigator/store"
)

// MemoryCheckpointStore implements store.CheckpointStore with an in-process
// map. Safe for concurrent use across threads.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	byThread    map[string][]string
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates a new empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
		byThread:    make(map[string][]string),
	}
}

// Save stores a checkpoint.
func (s *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneCheckpoint(checkpoint)
	if _, exists := s.checkpoints[cp.ID]; !exists {
		s.byThread[cp.ThreadID] = append(s.byThread[cp.ThreadID], cp.ID)
	}
	s.checkpoints[cp.ID] = cp
	return nil
}

// Load retrieves a checkpoint by ID.
func (s *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneCheckpoint(cp), nil
}

// List returns all checkpoints for a thread, oldest first.
func (s *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byThread[threadID]
	checkpoints := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		if cp, ok := s.checkpoints[id]; ok {
			checkpoints = append(checkpoints, cloneCheckpoint(cp))
		}
	}
	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Version < checkpoints[j].Version
	})
	return checkpoints, nil
}

// GetLatestByThread returns the highest-version checkpoint for a thread.
func (s *MemoryCheckpointStore) GetLatestByThread(ctx context.Context, threadID string) (*store.Checkpoint, error) {
	checkpoints, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, store.ErrNotFound
	}
	return checkpoints[len(checkpoints)-1], nil
}

// Delete removes a checkpoint.
func (s *MemoryCheckpointStore) Delete(_ context.Context, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[checkpointID]
	if !ok {
		return nil
	}
	delete(s.checkpoints, checkpointID)

	ids := s.byThread[cp.ThreadID]
	for i, id := range ids {
		if id == checkpointID {
			s.byThread[cp.ThreadID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all checkpoints for a thread.
func (s *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byThread[threadID] {
		delete(s.checkpoints, id)
	}
	delete(s.byThread, threadID)
	return nil
}

func cloneCheckpoint(cp *store.Checkpoint) *store.Checkpoint {
	clone := *cp
	if cp.State != nil {
		clone.State = append([]byte(nil), cp.State...)
	}
	if cp.Metadata != nil {
		clone.Metadata = make(map[string]any, len(cp.Metadata))
		for k, v := range cp.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
