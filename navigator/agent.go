package navigator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/smallnest/yelpnavigator/graph"
	"github.com/smallnest/yelpnavigator/log"
	"github.com/smallnest/yelpnavigator/store"
)

// Agent drives a multi-turn conversation over the checkpointed V3 graph.
// Each Chat call loads the thread's latest state, appends the user message,
// runs one full turn and returns the assistant reply. Conversation history,
// the parsed query and accumulated results all carry over between turns, so
// a follow-up like "which of them has the best reviews?" only runs the tools
// the refined request still needs.
type Agent struct {
	runnable *graph.CheckpointableRunnable[State]
	threadID string
}

// NewAgent creates an agent for the given thread. An empty threadID starts a
// new conversation under a generated ID.
func NewAgent(runnable *graph.CheckpointableRunnable[State], threadID string) *Agent {
	if threadID == "" {
		threadID = uuid.New().String()
	}
	return &Agent{runnable: runnable, threadID: threadID}
}

// ThreadID returns the conversation's thread ID.
func (a *Agent) ThreadID() string { return a.threadID }

// Chat processes one user message and returns the reply for this turn.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	state, err := a.loadThread(ctx)
	if err != nil {
		return "", err
	}
	state.AppendUser(message)

	config := graph.WithThreadID(a.threadID)
	config.Listeners = []graph.StepListener{&graph.LoggingListener{}}
	out, err := a.runnable.InvokeWithConfig(ctx, state, config)
	if err != nil {
		return "", fmt.Errorf("agent: turn failed: %w", err)
	}
	reply := out.LastAssistantMessage()
	if reply == "" {
		return "", fmt.Errorf("agent: turn produced no reply")
	}
	return reply, nil
}

// loadThread restores the thread's state for a new turn. If the latest
// checkpoint belongs to an interrupted turn, that turn is completed first so
// the new message starts from a clean end-of-turn state.
func (a *Agent) loadThread(ctx context.Context) (State, error) {
	latest, err := a.runnable.Store().GetLatestByThread(ctx, a.threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewState(a.threadID), nil
		}
		return State{}, fmt.Errorf("agent: load thread %s: %w", a.threadID, err)
	}
	if latest.NodeName != graph.END {
		log.Info("thread %s has an interrupted turn at %s, resuming it", a.threadID, latest.NodeName)
		var zero State
		if _, err := a.runnable.InvokeWithConfig(ctx, zero, graph.WithThreadID(a.threadID)); err != nil {
			return State{}, fmt.Errorf("agent: resume thread %s: %w", a.threadID, err)
		}
	}

	state, ok, err := a.runnable.ThreadState(ctx, a.threadID)
	if err != nil {
		return State{}, fmt.Errorf("agent: load thread %s: %w", a.threadID, err)
	}
	if !ok {
		return NewState(a.threadID), nil
	}
	state.BeginTurn()
	return state, nil
}
