package navigator

import (
	"context"
	"time"

	"github.com/smallnest/yelpnavigator/graph"
	"github.com/smallnest/yelpnavigator/store"
	"github.com/smallnest/yelpnavigator/tool"
)

// ToolRetryConfig is the retry policy applied to tool nodes in the V3 graph:
// up to three attempts with doubling backoff, transient failures only.
func ToolRetryConfig() *graph.RetryConfig {
	cfg := graph.DefaultRetryConfig()
	cfg.InitialDelay = 200 * time.Millisecond
	cfg.MaxDelay = 2 * time.Second
	cfg.Retryable = tool.IsTransient
	return cfg
}

// BuildV3 compiles the production graph: the V2 supervisor topology hardened
// with an input guardrail at the entry, per-tool retry with graceful
// degradation, and a checkpoint written to st after every node so an
// interrupted turn resumes at its next node instead of re-running completed
// ones.
func BuildV3(p *Pipeline, st store.CheckpointStore) (*graph.CheckpointableRunnable[State], error) {
	if p.Tools.Retry == nil {
		p.Tools.Retry = ToolRetryConfig()
	}
	p.Tools.DegradeOnError = true

	g := graph.NewStateGraph[State]()
	addSupervisedNodes(g, p, RouteOptions{DegradeOnError: true})

	g.AddNode(nodeGuardrail, "screen user input before processing",
		func(_ context.Context, s State) (State, error) { return GuardrailNode(s), nil })
	g.AddConditionalEdge(nodeGuardrail, func(_ context.Context, s State) string {
		if s.Guardrails.InjectionSuspected {
			return nodeFailReply
		}
		return nodeClarifier
	})
	g.SetEntryPoint(nodeGuardrail)

	runnable, err := g.Compile()
	if err != nil {
		return nil, err
	}
	return graph.NewCheckpointable(runnable, st), nil
}
