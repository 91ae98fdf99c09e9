package navigator

import (
	"context"

	"github.com/smallnest/yelpnavigator/graph"
)

// BuildV1 compiles the first-cut graph. There is no supervisor: each node's
// outgoing conditional edge re-implements its own slice of the routing rules
// by inspecting the raw result accumulator directly. Kept as a working
// baseline for comparison against the supervised graphs.
func BuildV1(p *Pipeline) (*graph.Runnable[State], error) {
	g := graph.NewStateGraph[State]()

	g.AddNode(nodeClarifier, "parse the user request into a structured query", p.Clarifier.Clarify)
	g.AddNode(nodeSearch, "search for businesses", p.Tools.SearchNode)
	g.AddNode(nodeDetails, "fetch website details", p.Tools.DetailsNode)
	g.AddNode(nodeSentiment, "fetch review sentiment", p.Tools.SentimentNode)
	g.AddNode(nodeSummary, "summarize results for the user", p.Summarizer.Summarize)
	g.AddNode(nodeClarifyReply, "ask the user to clarify",
		func(_ context.Context, s State) (State, error) { return ClarifyReplyNode(s), nil })
	g.AddNode(nodeFailReply, "report a failed turn",
		func(_ context.Context, s State) (State, error) { return FailReplyNode(s), nil })

	g.AddConditionalEdge(nodeClarifier, func(_ context.Context, s State) string {
		if s.NeedsClarification || s.ParsedQuery == nil {
			return nodeClarifyReply
		}
		return nodeSearch
	})

	g.AddConditionalEdge(nodeSearch, func(_ context.Context, s State) string {
		if s.LastError != "" && s.LastError != ErrTagEmptyResult {
			return nodeFailReply
		}
		if len(s.RawResults.Businesses) == 0 {
			return nodeSummary
		}
		if s.ParsedQuery.DetailLevel == DetailGeneral {
			return nodeSummary
		}
		return nodeDetails
	})

	g.AddConditionalEdge(nodeDetails, func(_ context.Context, s State) string {
		if s.LastError != "" {
			return nodeFailReply
		}
		if s.ParsedQuery.DetailLevel == DetailReviews && len(s.RawResults.Businesses) > 0 {
			return nodeSentiment
		}
		return nodeSummary
	})

	g.AddConditionalEdge(nodeSentiment, func(_ context.Context, s State) string {
		if s.LastError != "" {
			return nodeFailReply
		}
		return nodeSummary
	})

	g.AddEdge(nodeSummary, graph.END)
	g.AddEdge(nodeClarifyReply, graph.END)
	g.AddEdge(nodeFailReply, graph.END)

	g.SetEntryPoint(nodeClarifier)
	return g.Compile()
}
