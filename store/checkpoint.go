package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested checkpoint does not exist.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint represents a saved conversation state at a specific point in
// execution. State is kept as raw JSON so every backend round-trips it
// byte-for-byte and the caller controls decoding.
type Checkpoint struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"thread_id"`
	NodeName  string          `json:"node_name"`
	State     json.RawMessage `json:"state"`
	Metadata  map[string]any  `json:"metadata"`
	Timestamp time.Time       `json:"timestamp"`
	Version   int             `json:"version"`
}

// CheckpointStore defines the interface for checkpoint persistence. Keys are
// independent per thread; implementations must not require cross-thread
// locking or transactions.
type CheckpointStore interface {
	// Save stores a checkpoint.
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID.
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints for a thread, oldest first.
	List(ctx context.Context, threadID string) ([]*Checkpoint, error)

	// GetLatestByThread returns the highest-version checkpoint for a thread,
	// or ErrNotFound when the thread has none.
	GetLatestByThread(ctx context.Context, threadID string) (*Checkpoint, error)

	// Delete removes a checkpoint.
	Delete(ctx context.Context, checkpointID string) error

	// Clear removes all checkpoints for a thread.
	Clear(ctx context.Context, threadID string) error
}
