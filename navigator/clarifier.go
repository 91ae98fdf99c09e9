package navigator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const clarifierSystemPrompt = `You convert user requests about local businesses into a structured query.
Call the set_query function exactly once.
Rules:
- free_text is the business topic (e.g. "coffee shops", "sushi restaurants").
- location is the city or area. Leave it empty if the user gave none.
- detail_level is "general" for a plain lookup, "detailed" when the user wants
  more information such as websites or offerings, "reviews" when the user asks
  about reviews, ratings quality or sentiment.
- new_topic is true when the request starts a new search, false when it
  refines the previous one. Resolve pronouns ("which of them", "the first
  one") against the previous query.
- Set needs_clarification to true when the topic or location cannot be
  determined.`

const clarifierStrictPrompt = clarifierSystemPrompt + `

Your previous answer was not a valid set_query call. Respond with a single
set_query function call and nothing else. Every field must be present.`

var setQueryTool = llms.Tool{
	Type: "function",
	Function: &llms.FunctionDefinition{
		Name:        "set_query",
		Description: "Record the structured interpretation of the user's request",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"free_text": map[string]any{
					"type":        "string",
					"description": "The business topic being searched for",
				},
				"location": map[string]any{
					"type":        "string",
					"description": "City or area, empty if not given",
				},
				"detail_level": map[string]any{
					"type": "string",
					"enum": []string{"general", "detailed", "reviews"},
				},
				"new_topic": map[string]any{
					"type":        "boolean",
					"description": "True when this starts a new search rather than refining the previous one",
				},
				"needs_clarification": map[string]any{
					"type":        "boolean",
					"description": "True when topic or location cannot be determined",
				},
			},
			"required": []string{"free_text", "location", "detail_level", "new_topic", "needs_clarification"},
		},
	},
}

type setQueryArgs struct {
	FreeText           string `json:"free_text"`
	Location           string `json:"location"`
	DetailLevel        string `json:"detail_level"`
	NewTopic           bool   `json:"new_topic"`
	NeedsClarification bool   `json:"needs_clarification"`
}

// Clarifier turns the latest user message into a ParsedQuery using a forced
// function call. A malformed model answer gets one stricter retry; if that
// also fails to parse, the turn falls back to asking the user for
// clarification. Only a transport-level model failure on both attempts is
// returned as an error.
type Clarifier struct {
	model llms.Model
}

// NewClarifier builds a Clarifier on top of the given model.
func NewClarifier(model llms.Model) *Clarifier {
	return &Clarifier{model: model}
}

// Clarify runs the clarifier node on the state.
func (c *Clarifier) Clarify(ctx context.Context, s State) (State, error) {
	args, err := c.callOnce(ctx, s, clarifierSystemPrompt)
	if err != nil {
		args, err = c.callOnce(ctx, s, clarifierStrictPrompt)
	}
	if err != nil {
		if isTransportErr(err) {
			return s, fmt.Errorf("clarifier: %w", err)
		}
		s.NeedsClarification = true
		return s, nil
	}

	if args.NeedsClarification {
		s.NeedsClarification = true
		return s, nil
	}

	parsed := ParsedQuery{
		FreeText:    strings.TrimSpace(args.FreeText),
		Location:    strings.TrimSpace(args.Location),
		DetailLevel: DetailLevel(args.DetailLevel),
	}
	if parsed.FreeText == "" || !parsed.DetailLevel.Valid() {
		s.NeedsClarification = true
		return s, nil
	}

	if args.NewTopic || s.ParsedQuery == nil {
		s.FreshQuery = true
		s.ResetResults()
	}
	s.ParsedQuery = &parsed
	return s, nil
}

func (c *Clarifier) callOnce(ctx context.Context, s State, sysPrompt string) (setQueryArgs, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, sysPrompt),
	}
	if s.ParsedQuery != nil {
		prev, _ := json.Marshal(s.ParsedQuery)
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem,
			"Previous query: "+string(prev)))
	}
	for _, m := range recentMessages(s.Messages, 6) {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, m.Content))
	}

	resp, err := c.model.GenerateContent(ctx, msgs,
		llms.WithTools([]llms.Tool{setQueryTool}),
		llms.WithToolChoice(llms.ToolChoice{
			Type:     "function",
			Function: &llms.FunctionReference{Name: "set_query"},
		}),
		llms.WithTemperature(0),
	)
	if err != nil {
		return setQueryArgs{}, transportErr{err}
	}
	if len(resp.Choices) == 0 {
		return setQueryArgs{}, fmt.Errorf("clarifier: empty response")
	}
	for _, tc := range resp.Choices[0].ToolCalls {
		if tc.FunctionCall == nil || tc.FunctionCall.Name != "set_query" {
			continue
		}
		var args setQueryArgs
		if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
			return setQueryArgs{}, fmt.Errorf("clarifier: bad arguments: %w", err)
		}
		return args, nil
	}
	return setQueryArgs{}, fmt.Errorf("clarifier: no set_query call in response")
}

// recentMessages returns at most n of the latest messages.
func recentMessages(msgs []Message, n int) []Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}

// transportErr marks a model call that failed at the transport level, as
// opposed to a parseable-but-wrong answer.
type transportErr struct{ err error }

func (e transportErr) Error() string { return e.err.Error() }
func (e transportErr) Unwrap() error { return e.err }

func isTransportErr(err error) bool {
	_, ok := err.(transportErr)
	return ok
}
