package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Steps []string `json:"steps"`
	Count int      `json:"count"`
}

func TestLinearGraph(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("a", "first step", func(_ context.Context, s counterState) (counterState, error) {
		s.Steps = append(s.Steps, "a")
		return s, nil
	})
	g.AddNode("b", "second step", func(_ context.Context, s counterState) (counterState, error) {
		s.Steps = append(s.Steps, "b")
		return s, nil
	})
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", END)

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counterState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Steps)
}

func TestConditionalEdge(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("inc", "increment", func(_ context.Context, s counterState) (counterState, error) {
		s.Count++
		s.Steps = append(s.Steps, "inc")
		return s, nil
	})
	g.SetEntryPoint("inc")
	g.AddConditionalEdge("inc", func(_ context.Context, s counterState) string {
		if s.Count < 3 {
			return "inc"
		}
		return END
	})

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counterState{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Count)
	assert.Len(t, out.Steps, 3)
}

func TestCompileErrors(t *testing.T) {
	g := NewStateGraph[counterState]()
	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrEntryPointNotSet)

	g.SetEntryPoint("ghost")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodeErrorStopsExecution(t *testing.T) {
	wantErr := errors.New("boom")
	g := NewStateGraph[counterState]()
	g.AddNode("bad", "always fails", func(_ context.Context, s counterState) (counterState, error) {
		return s, wantErr
	})
	g.SetEntryPoint("bad")
	g.AddEdge("bad", END)

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), counterState{})
	assert.ErrorIs(t, err, wantErr)
	assert.Contains(t, err.Error(), "bad")
}

func TestNoOutgoingEdge(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("lonely", "no edges", func(_ context.Context, s counterState) (counterState, error) {
		return s, nil
	})
	g.SetEntryPoint("lonely")

	r, err := g.Compile()
	require.NoError(t, err)

	_, err = r.Invoke(context.Background(), counterState{})
	assert.ErrorIs(t, err, ErrNoOutgoingEdge)
}

func TestResumeFromSkipsCompletedNodes(t *testing.T) {
	g := NewStateGraph[counterState]()
	for _, name := range []string{"a", "b", "c"} {
		name := name
		g.AddNode(name, name, func(_ context.Context, s counterState) (counterState, error) {
			s.Steps = append(s.Steps, name)
			return s, nil
		})
	}
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", END)

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.InvokeWithConfig(context.Background(), counterState{Steps: []string{"a"}}, &Config{ResumeFrom: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Steps)
}

func TestListenersSeeEveryStep(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("a", "a", func(_ context.Context, s counterState) (counterState, error) {
		s.Count = 1
		return s, nil
	})
	g.AddNode("b", "b", func(_ context.Context, s counterState) (counterState, error) {
		s.Count = 2
		return s, nil
	})
	g.SetEntryPoint("a")
	g.AddEdge("a", "b")
	g.AddEdge("b", END)

	r, err := g.Compile()
	require.NoError(t, err)

	var seen []string
	var counts []int
	listener := StepListenerFunc(func(_ context.Context, nodeName string, state any) {
		seen = append(seen, nodeName)
		counts = append(counts, state.(counterState).Count)
	})

	_, err = r.InvokeWithConfig(context.Background(), counterState{}, &Config{Listeners: []StepListener{listener}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []int{1, 2}, counts)
}

func TestContextCancellation(t *testing.T) {
	g := NewStateGraph[counterState]()
	g.AddNode("spin", "loops forever", func(_ context.Context, s counterState) (counterState, error) {
		s.Count++
		return s, nil
	})
	g.SetEntryPoint("spin")
	g.AddEdge("spin", "spin")

	r, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Invoke(ctx, counterState{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThreadIDRoundTrip(t *testing.T) {
	assert.Equal(t, "t-42", ThreadIDFrom(WithThreadID("t-42")))
	assert.Equal(t, "", ThreadIDFrom(nil))
	assert.Equal(t, "", ThreadIDFrom(&Config{}))
}
