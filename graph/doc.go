// Package graph provides a sequential, typed state-graph engine for
// conversational agents.
//
// A StateGraph is a set of named nodes connected by static or conditional
// edges over a shared state type. Exactly one node runs at a time; the
// outgoing edge of the node that just completed selects the next node, until
// execution reaches the END sentinel. Different conversation threads are
// independent and may be driven concurrently by the host process, but a
// single thread is always strictly sequential.
//
// Checkpointing is layered on as a step listener: CheckpointableRunnable
// persists the full state after every node transition under the invocation's
// thread ID and transparently resumes interrupted runs without re-executing
// completed nodes.
//
// Basic usage:
//
//	g := graph.NewStateGraph[State]()
//	g.AddNode("search", "run the search", searchNode)
//	g.AddConditionalEdge("search", routeAfterSearch)
//	g.SetEntryPoint("search")
//	runnable, err := g.Compile()
//	final, err := runnable.Invoke(ctx, initial)
package graph
