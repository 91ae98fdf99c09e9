package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentGeneratesThreadID(t *testing.T) {
	rig := newTestRig(t, setQueryArgs{FreeText: "coffee", DetailLevel: "general", NewTopic: true})
	runnable, _ := rig.buildV3(t)

	a := NewAgent(runnable, "")
	assert.NotEmpty(t, a.ThreadID())

	b := NewAgent(runnable, "fixed")
	assert.Equal(t, "fixed", b.ThreadID())
}

func TestAgentKeepsConversationHistory(t *testing.T) {
	rig := newTestRig(t, setQueryArgs{
		FreeText: "coffee shops", Location: "Portland", DetailLevel: "general", NewTopic: true,
	})
	runnable, _ := rig.buildV3(t)
	agent := NewAgent(runnable, "t1")

	_, err := agent.Chat(context.Background(), "find coffee shops in Portland")
	require.NoError(t, err)
	_, err = agent.Chat(context.Background(), "thanks, any more?")
	require.NoError(t, err)

	state, found, err := runnable.ThreadState(context.Background(), "t1")
	require.NoError(t, err)
	require.True(t, found)

	// Two user messages and two replies, in order.
	require.Len(t, state.Messages, 4)
	assert.Equal(t, RoleUser, state.Messages[0].Role)
	assert.Equal(t, RoleAssistant, state.Messages[1].Role)
	assert.Equal(t, "thanks, any more?", state.Messages[2].Content)
	assert.Equal(t, RoleAssistant, state.Messages[3].Role)
}

func TestAgentCompletesInterruptedTurnWithoutReRunningTools(t *testing.T) {
	rig := newTestRig(t, setQueryArgs{
		FreeText: "coffee shops", Location: "Portland", DetailLevel: "general", NewTopic: true,
	})
	// The clarifier call succeeds, then the summary model call dies mid-turn.
	rig.model.errs = []error{nil, errors.New("model connection reset")}
	runnable, st := rig.buildV3(t)
	agent := NewAgent(runnable, "t1")

	_, err := agent.Chat(context.Background(), "find coffee shops in Portland")
	require.Error(t, err)
	require.Equal(t, 1, rig.service.hitCount("/search"))

	// The interrupted turn left checkpoints short of the END marker.
	latest, err := st.GetLatestByThread(context.Background(), "t1")
	require.NoError(t, err)
	require.NotEqual(t, "END", latest.NodeName)

	// The next Chat resumes and finishes the stalled turn first, then runs
	// the new one. The search node never re-executes for the old turn.
	reply, err := agent.Chat(context.Background(), "and sushi places in Portland?")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Equal(t, 2, rig.service.hitCount("/search"))

	latest, err = st.GetLatestByThread(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "END", latest.NodeName)
}
