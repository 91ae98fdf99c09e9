package navigator

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel scripts model behavior for tests. Calls carrying tools are
// answered with a set_query tool call built from queryArgs; plain calls are
// answered with summaryText.
type fakeModel struct {
	mu sync.Mutex

	queryArgs   setQueryArgs
	summaryText string

	// rawArgs, when set, overrides the marshaled queryArgs. Used to feed the
	// clarifier malformed output.
	rawArgs []string

	// errs are returned in order before any scripted response.
	errs []error

	toolCalls    int
	summaryCalls int
}

var _ llms.Model = (*fakeModel)(nil)

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}

	opts := &llms.CallOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if len(opts.Tools) > 0 {
		m.toolCalls++
		args := m.nextArgs()
		return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call_1",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "set_query",
					Arguments: args,
				},
			}},
		}}}, nil
	}

	m.summaryCalls++
	text := m.summaryText
	if text == "" {
		text = "Here is what I found."
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

func (m *fakeModel) nextArgs() string {
	if len(m.rawArgs) > 0 {
		args := m.rawArgs[0]
		m.rawArgs = m.rawArgs[1:]
		return args
	}
	raw, _ := json.Marshal(m.queryArgs)
	return string(raw)
}

func (m *fakeModel) counts(t *testing.T) (toolCalls, summaryCalls int) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toolCalls, m.summaryCalls
}
