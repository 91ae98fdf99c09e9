package graph

import "errors"

var (
	// ErrEntryPointNotSet is returned by Compile when no entry point was set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when execution reaches a node name that was
	// never added to the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when a non-terminal node has neither a
	// static nor a conditional outgoing edge.
	ErrNoOutgoingEdge = errors.New("no outgoing edge from node")
)
