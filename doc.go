// Yelp Navigator - A Conversational Agent for Local Business Lookups
//
// Yelp Navigator answers natural-language questions about local businesses
// ("find coffee shops in Portland", "which of them has the best reviews?") by
// orchestrating an LLM and a set of business data tools in a stateful graph.
// Conversations are multi-turn and resumable: the full state is checkpointed
// per thread after every step.
//
// # Quick Start
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		openaillm "github.com/smallnest/yelpnavigator/llms/openai"
//		"github.com/smallnest/yelpnavigator/navigator"
//		"github.com/smallnest/yelpnavigator/store/memory"
//		"github.com/smallnest/yelpnavigator/tool"
//	)
//
//	func main() {
//		model, _ := openaillm.New()
//
//		pipeline := navigator.NewPipeline(model, &navigator.Nodes{
//			Search:    tool.NewSearchClient("http://localhost:8080"),
//			Details:   tool.NewDetailsClient("http://localhost:8080"),
//			Sentiment: tool.NewSentimentClient("http://localhost:8080"),
//		})
//
//		runnable, _ := navigator.BuildV3(pipeline, memory.NewMemoryCheckpointStore())
//		agent := navigator.NewAgent(runnable, "")
//
//		reply, _ := agent.Chat(context.Background(), "find coffee shops in Portland with reviews")
//		fmt.Println(reply)
//	}
//
// # Package Structure
//
// graph/
// The typed graph execution engine: sequential node execution, conditional
// edges, step listeners, bounded retry and write-through checkpointing.
//
// navigator/
// The agent itself: clarifier, supervisor routing table, tool execution
// nodes, summary generation, input guardrails and the multi-turn Agent.
//
// tool/
// HTTP adapters for the business search, details and sentiment services,
// with a transient/malformed error taxonomy and HTML-to-text extraction.
//
// store/
// Checkpoint persistence: in-memory, SQLite, Redis and PostgreSQL backends
// behind one CheckpointStore interface.
//
// llms/openai/
// An llms.Model implementation over any OpenAI-compatible chat completion
// API, with function calling and forced tool choice.
//
// config/
// Environment-driven configuration with .env support.
//
// cmd/yelpnav/
// The interactive chat CLI.
//
// # Configuration
//
// The CLI is configured through environment variables:
//
//   - OPENAI_API_KEY / OPENAI_API_BASE: model access
//   - YELPNAV_MODEL: chat model name (default gpt-4o-mini)
//   - YELPNAV_TOOL_URL: base URL of the business data service
//   - YELPNAV_STORE: checkpoint backend (memory, sqlite, redis, postgres)
//   - YELPNAV_LOG_LEVEL: debug, info, warn or error
package yelpnavigator // import "github.com/smallnest/yelpnavigator"
