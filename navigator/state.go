package navigator

import (
	"slices"

	"github.com/smallnest/yelpnavigator/tool"
)

// DetailLevel is the user-requested depth of a lookup. It gates which tool
// nodes are eligible to run.
type DetailLevel string

const (
	// DetailGeneral licenses business search only.
	DetailGeneral DetailLevel = "general"
	// DetailDetailed licenses search and detail fetch.
	DetailDetailed DetailLevel = "detailed"
	// DetailReviews licenses search, detail fetch and review sentiment.
	DetailReviews DetailLevel = "reviews"
)

// Valid reports whether d is one of the three known levels.
func (d DetailLevel) Valid() bool {
	return d == DetailGeneral || d == DetailDetailed || d == DetailReviews
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. It is deliberately a flat, JSON-safe
// shape so checkpointed state round-trips byte-for-byte; conversion to the
// LLM client's message type happens only at the LLM boundary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ParsedQuery is the clarifier's normalized view of the user request. Set
// once per top-level request and immutable afterward until the user issues a
// new one.
type ParsedQuery struct {
	FreeText    string      `json:"free_text"`
	Location    string      `json:"location"`
	DetailLevel DetailLevel `json:"detail_level"`
}

// RawResults accumulates full tool payloads. They are pulled into an
// LLM-facing context only by the summary node, never by routing.
type RawResults struct {
	Businesses []tool.Business        `json:"businesses,omitempty"`
	Details    []tool.BusinessDetails `json:"details,omitempty"`
	Sentiments []tool.ReviewSentiment `json:"sentiments,omitempty"`
}

// Data category names used in PipelineData.Degraded and summaries.
const (
	CategorySearch    = "search"
	CategoryDetails   = "details"
	CategorySentiment = "sentiment"
)

// PipelineData is the minimal routing-sufficient summary of tool results:
// business IDs, booleans and category names only. Keeping raw payloads out of
// this struct is what keeps routing prompts small; do not add fields whose
// size grows with payload contents.
type PipelineData struct {
	BusinessIDs  []string `json:"business_ids,omitempty"`
	SearchDone   bool     `json:"search_done"`
	SearchEmpty  bool     `json:"search_empty"`
	HasDetails   bool     `json:"has_details"`
	HasSentiment bool     `json:"has_sentiment"`

	// Degraded lists data categories that became unavailable this turn
	// (exhausted retries or a non-retryable failure under graceful
	// degradation).
	Degraded []string `json:"degraded,omitempty"`
}

// IsDegraded reports whether the given category is marked degraded.
func (p *PipelineData) IsDegraded(category string) bool {
	return slices.Contains(p.Degraded, category)
}

// MarkDegraded records a category as unavailable for this turn.
func (p *PipelineData) MarkDegraded(category string) {
	if !p.IsDegraded(category) {
		p.Degraded = append(p.Degraded, category)
	}
}

// GuardrailFlags records guardrail outcomes for the current turn.
type GuardrailFlags struct {
	InjectionSuspected bool `json:"injection_suspected"`
	PIIRedacted        bool `json:"pii_redacted"`
}

// State is the per-conversation-thread data structure flowing through the
// graph. It is JSON-serializable end to end so every field survives a
// checkpoint round trip.
type State struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`

	ParsedQuery        *ParsedQuery `json:"parsed_query,omitempty"`
	NeedsClarification bool         `json:"needs_clarification"`

	// FreshQuery is true when the current turn introduced a new top-level
	// request (new topic or location), as opposed to refining the detail
	// level of an existing one.
	FreshQuery bool `json:"fresh_query"`

	RawResults   RawResults   `json:"raw_results"`
	PipelineData PipelineData `json:"pipeline_data"`

	// RouteDecision is the last decision emitted by the supervisor.
	RouteDecision Decision `json:"route_decision,omitempty"`

	// RetryCounts tracks retries per node for the current turn.
	RetryCounts map[string]int `json:"retry_counts,omitempty"`

	// LastError is the taxonomy tag of the most recent node failure.
	LastError string `json:"last_error,omitempty"`

	Guardrails GuardrailFlags `json:"guardrail_flags"`
}

// NewState creates the state for the first turn of a thread.
func NewState(threadID string) State {
	return State{ThreadID: threadID}
}

// BeginTurn resets the per-turn fields before a new user message is
// processed. Parsed query and accumulated results survive across turns so
// follow-up requests can build on them.
func (s *State) BeginTurn() {
	s.NeedsClarification = false
	s.FreshQuery = false
	s.RouteDecision = ""
	s.LastError = ""
	s.RetryCounts = nil
	s.Guardrails = GuardrailFlags{}
	s.PipelineData.Degraded = nil
}

// ResetResults drops accumulated results when a new top-level request
// replaces the previous one.
func (s *State) ResetResults() {
	s.RawResults = RawResults{}
	s.PipelineData = PipelineData{}
}

// AppendUser appends a user message.
func (s *State) AppendUser(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: content})
}

// AppendAssistant appends an assistant reply.
func (s *State) AppendAssistant(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content})
}

// LastUserMessage returns the most recent user message, or "".
func (s *State) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantMessage returns the most recent assistant reply, or "".
func (s *State) LastAssistantMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// RecordRetries adds retry attempts (attempts beyond the first) for a node.
func (s *State) RecordRetries(node string, retries int) {
	if retries <= 0 {
		return
	}
	if s.RetryCounts == nil {
		s.RetryCounts = make(map[string]int)
	}
	s.RetryCounts[node] += retries
}
