package navigator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
)

const summarySystemPrompt = `You summarize local business lookup results for the user.
Write a short, friendly answer grounded only in the data below. Mention each
business by name. If a data category is listed as unavailable, say so in one
sentence instead of inventing its contents.`

// Summarizer renders the final reply of a turn from the accumulated raw
// results. It is the only component that feeds raw tool payloads to the
// model.
type Summarizer struct {
	model llms.Model
}

// NewSummarizer builds a Summarizer on top of the given model.
func NewSummarizer(model llms.Model) *Summarizer {
	return &Summarizer{model: model}
}

// Summarize runs the summary node. Empty search results get a deterministic
// reply without a model call.
func (g *Summarizer) Summarize(ctx context.Context, s State) (State, error) {
	if s.PipelineData.IsDegraded(CategorySearch) {
		s.AppendAssistant("I couldn't reach the business search service right now. Please try again in a moment.")
		return s, nil
	}
	if s.PipelineData.SearchEmpty {
		s.AppendAssistant(fmt.Sprintf("I couldn't find any %s in %s. Try a different area or category.",
			s.ParsedQuery.FreeText, orAnywhere(s.ParsedQuery.Location)))
		return s, nil
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, summarySystemPrompt),
		llms.TextParts(llms.ChatMessageTypeSystem, renderResults(s)),
		llms.TextParts(llms.ChatMessageTypeHuman, s.LastUserMessage()),
	}
	resp, err := g.model.GenerateContent(ctx, msgs, llms.WithTemperature(0.3))
	if err != nil {
		return s, fmt.Errorf("summary: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return s, fmt.Errorf("summary: empty response")
	}
	s.AppendAssistant(resp.Choices[0].Content)
	return s, nil
}

// renderResults lays out the raw results plus degraded-category notes as the
// summary prompt.
func renderResults(s State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s", s.ParsedQuery.FreeText)
	if s.ParsedQuery.Location != "" {
		fmt.Fprintf(&b, " in %s", s.ParsedQuery.Location)
	}
	b.WriteString("\n\nBusinesses:\n")
	for _, biz := range s.RawResults.Businesses {
		fmt.Fprintf(&b, "- %s (rating %.1f, %s) at %s\n",
			biz.Name, biz.Rating, strings.Join(biz.Categories, ", "), biz.Location)
	}

	if len(s.RawResults.Details) > 0 {
		b.WriteString("\nWebsite details:\n")
		for _, d := range s.RawResults.Details {
			fmt.Fprintf(&b, "- %s: %s\n", d.BusinessID, truncate(d.WebsiteContent, 600))
		}
	}
	if len(s.RawResults.Sentiments) > 0 {
		b.WriteString("\nReview sentiment:\n")
		for _, rs := range s.RawResults.Sentiments {
			fmt.Fprintf(&b, "- %s: %d positive, %d neutral, %d negative. Top positive: %q. Top negative: %q\n",
				rs.BusinessID, rs.PositiveCount, rs.NeutralCount, rs.NegativeCount,
				truncate(rs.TopPositiveReview, 200), truncate(rs.TopNegativeReview, 200))
		}
	}

	for _, category := range s.PipelineData.Degraded {
		fmt.Fprintf(&b, "\nUnavailable: %s data could not be fetched this turn.\n", category)
	}
	return b.String()
}

// truncate caps s at n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func orAnywhere(location string) string {
	if location == "" {
		return "that area"
	}
	return location
}

// ClarifyReplyNode produces the clarification question ending a turn whose
// request could not be parsed.
func ClarifyReplyNode(s State) State {
	s.AppendAssistant("Could you tell me what kind of business you're looking for and in which city?")
	return s
}

// FailReplyNode produces the terminal reply for a failed turn.
func FailReplyNode(s State) State {
	if s.LastError == ErrTagGuardrailBlock {
		s.AppendAssistant(blockedReply)
		return s
	}
	s.AppendAssistant("Something went wrong while looking that up. Please try again.")
	return s
}
