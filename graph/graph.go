package graph

import (
	"context"
	"fmt"
)

// END is the sentinel node name that terminates graph execution.
const END = "END"

// Node represents a named processing step in the graph.
type Node[S any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (S, error)
}

// Edge represents a static connection between two nodes.
type Edge struct {
	From string
	To   string
}

// StateGraph is a directed graph of processing nodes over a shared state type.
// Nodes execute strictly sequentially: one node at a time, and the outgoing
// edge (static or conditional) of the node that just ran selects the next one.
//
// Example:
//
//	g := graph.NewStateGraph[MyState]()
//	g.AddNode("step", "do the step", func(ctx context.Context, s MyState) (MyState, error) {
//	    s.Count++
//	    return s, nil
//	})
//	g.SetEntryPoint("step")
//	g.AddEdge("step", graph.END)
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// edges is a slice of Edge objects representing the connections between nodes
	edges []Edge

	// conditionalEdges maps a "From" node to a function deriving the "To" node from state
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string
}

// NewStateGraph creates a new empty StateGraph.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:            make(map[string]Node[S]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name string, description string, fn func(ctx context.Context, state S) (S, error)) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a static edge between the "from" and "to" nodes.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{
		From: from,
		To:   to,
	})
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// Config carries per-invocation options.
type Config struct {
	// Configurable holds invocation-scoped values; the "thread_id" key
	// identifies the conversation thread for checkpointing.
	Configurable map[string]any

	// ResumeFrom, when set, starts execution at the named node instead of the
	// entry point. Used to continue an interrupted run without re-executing
	// completed nodes.
	ResumeFrom string

	// Listeners are notified after each node's output has been merged into
	// the state and before the next node starts.
	Listeners []StepListener
}

// WithThreadID creates a Config carrying the given conversation thread ID.
func WithThreadID(threadID string) *Config {
	return &Config{
		Configurable: map[string]any{
			"thread_id": threadID,
		},
	}
}

// ThreadIDFrom extracts the thread ID from a config, or "" when absent.
func ThreadIDFrom(config *Config) string {
	if config == nil || config.Configurable == nil {
		return ""
	}
	tid, _ := config.Configurable["thread_id"].(string)
	return tid
}

// Runnable is a compiled state graph that can be invoked.
type Runnable[S any] struct {
	graph *StateGraph[S]
}

// Compile validates the graph and returns a Runnable instance.
func (g *StateGraph[S]) Compile() (*Runnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}

	return &Runnable[S]{graph: g}, nil
}

// Invoke executes the compiled state graph with the given input state.
func (r *Runnable[S]) Invoke(ctx context.Context, initialState S) (S, error) {
	return r.InvokeWithConfig(ctx, initialState, nil)
}

// InvokeWithConfig executes the compiled state graph with the given input state and config.
func (r *Runnable[S]) InvokeWithConfig(ctx context.Context, initialState S, config *Config) (S, error) {
	var zero S

	state := initialState
	current := r.graph.entryPoint
	if config != nil && config.ResumeFrom != "" {
		current = config.ResumeFrom
	}

	for current != END {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		out, err := node.Function(ctx, state)
		if err != nil {
			return zero, fmt.Errorf("error in node %s: %w", current, err)
		}
		state = out

		// Listeners fire after the node's output is merged and before the
		// next node starts, so a checkpoint written here is always a clean
		// "node complete, successor not started" snapshot.
		if config != nil {
			for _, l := range config.Listeners {
				l.OnGraphStep(ctx, current, state)
			}
		}

		next, err := r.nextNode(ctx, current, state)
		if err != nil {
			return zero, err
		}
		current = next
	}

	return state, nil
}

// nextNode determines the successor of the given node based on its conditional
// or static edges.
func (r *Runnable[S]) nextNode(ctx context.Context, nodeName string, state S) (string, error) {
	if condition, ok := r.graph.conditionalEdges[nodeName]; ok {
		next := condition(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", nodeName)
		}
		return next, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == nodeName {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, nodeName)
}
