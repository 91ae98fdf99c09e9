// Package navigator implements a conversational agent for local business
// lookups: a clarifier parses the request into a structured query, tool nodes
// fetch search results, website details and review sentiment, and a summary
// node renders the reply.
//
// Three graph builders cover the agent's evolution. BuildV1 routes with
// per-node conditionals over the raw result accumulator. BuildV2 centralizes
// routing in a supervisor that reads only the compact pipeline data. BuildV3
// hardens V2 with an input guardrail, per-tool retry with graceful
// degradation and per-thread checkpointing, and is what Agent runs in
// production.
package navigator
