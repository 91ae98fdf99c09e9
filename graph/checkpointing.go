package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/yelpnavigator/log"
	"github.com/smallnest/yelpnavigator/store"
)

// Checkpoint is an alias for store.Checkpoint, so graph users don't need to
// import the store package for the common case.
type Checkpoint = store.Checkpoint

// CheckpointStore is an alias for store.CheckpointStore.
type CheckpointStore = store.CheckpointStore

// CheckpointableRunnable wraps a Runnable with write-through checkpointing.
// After every node transition the full state is persisted under the
// invocation's thread ID, so a crash between node N and node N+1 resumes
// cleanly at "N complete, N+1 not started".
type CheckpointableRunnable[S any] struct {
	runnable *Runnable[S]
	store    CheckpointStore
}

// NewCheckpointable wraps a compiled runnable with the given checkpoint store.
func NewCheckpointable[S any](runnable *Runnable[S], st CheckpointStore) *CheckpointableRunnable[S] {
	return &CheckpointableRunnable[S]{
		runnable: runnable,
		store:    st,
	}
}

// Store returns the underlying checkpoint store.
func (cr *CheckpointableRunnable[S]) Store() CheckpointStore {
	return cr.store
}

// Invoke executes the graph with checkpointing support.
func (cr *CheckpointableRunnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return cr.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the graph with checkpointing support.
//
// When the config carries a thread ID and the latest checkpoint for that
// thread belongs to an interrupted run (its node is not END), execution
// restores the checkpointed state and continues at the successor of the last
// completed node. No completed node is re-executed on resume.
func (cr *CheckpointableRunnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	var zero S

	threadID := ThreadIDFrom(config)

	state := initialState
	resumeFrom := ""
	version := 0

	if threadID != "" {
		latest, err := cr.store.GetLatestByThread(ctx, threadID)
		switch {
		case err == nil:
			version = latest.Version

			// Manual ResumeFrom takes precedence over crash recovery.
			if latest.NodeName != END && (config == nil || config.ResumeFrom == "") {
				var restored S
				if uerr := json.Unmarshal(latest.State, &restored); uerr != nil {
					return zero, fmt.Errorf("failed to restore checkpoint state: %w", uerr)
				}
				next, nerr := cr.runnable.nextNode(ctx, latest.NodeName, restored)
				if nerr != nil {
					return zero, nerr
				}
				state = restored
				resumeFrom = next
			}
		case errors.Is(err, store.ErrNotFound):
			// First run for this thread.
		default:
			return zero, fmt.Errorf("failed to load latest checkpoint: %w", err)
		}
	}

	listener := &checkpointListener{
		store:    cr.store,
		threadID: threadID,
		version:  version,
	}

	invokeConfig := &Config{ResumeFrom: resumeFrom}
	if config != nil {
		invokeConfig.Configurable = config.Configurable
		invokeConfig.Listeners = append(invokeConfig.Listeners, config.Listeners...)
		if config.ResumeFrom != "" {
			invokeConfig.ResumeFrom = config.ResumeFrom
		}
	}
	if threadID != "" {
		invokeConfig.Listeners = append(invokeConfig.Listeners, listener)
	}

	out, err := cr.runnable.InvokeWithConfig(ctx, state, invokeConfig)
	if err != nil {
		return zero, err
	}

	// Mark the run complete so a later invocation on this thread starts at
	// the entry point instead of resuming.
	if threadID != "" {
		listener.OnGraphStep(ctx, END, out)
	}

	return out, nil
}

// ThreadState returns the latest checkpointed state for a thread. The boolean
// reports whether any checkpoint exists.
func (cr *CheckpointableRunnable[S]) ThreadState(ctx context.Context, threadID string) (S, bool, error) {
	var zero S

	latest, err := cr.store.GetLatestByThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, err
	}

	var state S
	if err := json.Unmarshal(latest.State, &state); err != nil {
		return zero, false, fmt.Errorf("failed to decode checkpoint state: %w", err)
	}
	return state, true, nil
}

// checkpointListener persists the state after every completed node.
type checkpointListener struct {
	store    CheckpointStore
	threadID string
	version  int
}

var _ StepListener = (*checkpointListener)(nil)

// OnGraphStep saves a checkpoint for the completed node. Save errors are
// logged rather than aborting the conversation: losing a checkpoint degrades
// crash recovery, not the in-flight turn.
func (cl *checkpointListener) OnGraphStep(ctx context.Context, nodeName string, state any) {
	raw, err := json.Marshal(state)
	if err != nil {
		log.Error("failed to marshal state for checkpoint at %s: %v", nodeName, err)
		return
	}

	cl.version++
	cp := &Checkpoint{
		ID:        generateCheckpointID(),
		ThreadID:  cl.threadID,
		NodeName:  nodeName,
		State:     raw,
		Timestamp: time.Now(),
		Version:   cl.version,
		Metadata: map[string]any{
			"thread_id": cl.threadID,
			"event":     "step",
		},
	}

	if err := cl.store.Save(ctx, cp); err != nil {
		log.Error("failed to save checkpoint at %s for thread %s: %v", nodeName, cl.threadID, err)
	}
}

func generateCheckpointID() string {
	return fmt.Sprintf("checkpoint_%s", uuid.New().String())
}
