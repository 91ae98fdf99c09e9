package navigator

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/yelpnavigator/graph"
)

// llmNodeTimeout bounds nodes that call the language model. Tool nodes carry
// their own HTTP client timeouts.
const llmNodeTimeout = 60 * time.Second

// Node names shared by the graph builders.
const (
	nodeGuardrail    = "guardrail"
	nodeClarifier    = "clarifier"
	nodeSupervisor   = "supervisor"
	nodeSearch       = "search"
	nodeDetails      = "details"
	nodeSentiment    = "sentiment"
	nodeSummary      = "summary"
	nodeClarifyReply = "clarify_reply"
	nodeFailReply    = "fail_reply"
)

// Pipeline holds the components every graph variant is built from.
type Pipeline struct {
	Clarifier  *Clarifier
	Summarizer *Summarizer
	Tools      *Nodes
}

// NewPipeline assembles a pipeline from a model and a set of tool nodes.
func NewPipeline(model llms.Model, tools *Nodes) *Pipeline {
	return &Pipeline{
		Clarifier:  NewClarifier(model),
		Summarizer: NewSummarizer(model),
		Tools:      tools,
	}
}

// BuildV2 compiles the centrally routed graph: every node returns control to
// the supervisor, and the supervisor's routing table is the only place that
// picks the next step. Routing reads pipeline data, never raw payloads.
func BuildV2(p *Pipeline) (*graph.Runnable[State], error) {
	g := graph.NewStateGraph[State]()
	addSupervisedNodes(g, p, RouteOptions{})
	g.SetEntryPoint(nodeClarifier)
	return g.Compile()
}

// addSupervisedNodes wires the supervisor-centric topology used by the V2
// and V3 graphs.
func addSupervisedNodes(g *graph.StateGraph[State], p *Pipeline, opts RouteOptions) {
	g.AddNodeWithTimeout(nodeClarifier, "parse the user request into a structured query", p.Clarifier.Clarify, llmNodeTimeout)
	g.AddNode(nodeSupervisor, "pick the next pipeline step",
		func(_ context.Context, s State) (State, error) {
			s.RouteDecision = Route(s, opts)
			return s, nil
		})
	g.AddNode(nodeSearch, "search for businesses", p.Tools.SearchNode)
	g.AddNode(nodeDetails, "fetch website details", p.Tools.DetailsNode)
	g.AddNode(nodeSentiment, "fetch review sentiment", p.Tools.SentimentNode)
	g.AddNodeWithTimeout(nodeSummary, "summarize results for the user", p.Summarizer.Summarize, llmNodeTimeout)
	g.AddNode(nodeClarifyReply, "ask the user to clarify",
		func(_ context.Context, s State) (State, error) { return ClarifyReplyNode(s), nil })
	g.AddNode(nodeFailReply, "report a failed turn",
		func(_ context.Context, s State) (State, error) { return FailReplyNode(s), nil })

	g.AddEdge(nodeClarifier, nodeSupervisor)
	g.AddConditionalEdge(nodeSupervisor, func(_ context.Context, s State) string {
		switch s.RouteDecision {
		case DecisionRunSearch:
			return nodeSearch
		case DecisionRunDetails:
			return nodeDetails
		case DecisionRunSentiment:
			return nodeSentiment
		case DecisionClarify:
			return nodeClarifyReply
		case DecisionFail:
			return nodeFailReply
		default:
			return nodeSummary
		}
	})
	g.AddEdge(nodeSearch, nodeSupervisor)
	g.AddEdge(nodeDetails, nodeSupervisor)
	g.AddEdge(nodeSentiment, nodeSupervisor)
	g.AddEdge(nodeSummary, graph.END)
	g.AddEdge(nodeClarifyReply, graph.END)
	g.AddEdge(nodeFailReply, graph.END)
}
