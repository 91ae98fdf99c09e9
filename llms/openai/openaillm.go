package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"
)

var (
	ErrEmptyResponse = errors.New("no response")
)

// LLM is an llms.Model implementation backed by an OpenAI-compatible chat
// completion API. It supports function calling, forced tool choice and
// JSON-object response format, which the clarifier and supervisor rely on for
// structured output.
type LLM struct {
	client *goopenai.Client
	model  string
}

var _ llms.Model = (*LLM)(nil)

// New returns a new OpenAI-compatible LLM client.
//
// Authentication options:
// 1. WithAPIKey(apiKey) - pass API key directly
// 2. Set OPENAI_API_KEY environment variable
//
// Example:
//
//	llm, err := openai.New(
//		openai.WithAPIKey("your-api-key"),
//		openai.WithModel("gpt-4o-mini"),
//	)
func New(opts ...Option) (*LLM, error) {
	options := &options{
		apiKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
		baseURL: getEnvOrDefault("OPENAI_API_BASE", ""),
		model:   "gpt-4o-mini",
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.apiKey == "" {
		return nil, fmt.Errorf(`%w
You can pass auth info by using openai.New(openai.WithAPIKey("{API Key}"))
or
export OPENAI_API_KEY={API Key}`, ErrNotSetAuth)
	}

	config := goopenai.DefaultConfig(options.apiKey)
	if options.baseURL != "" {
		config.BaseURL = options.baseURL
	}
	if options.httpClient != nil {
		config.HTTPClient = options.httpClient
	}

	return &LLM{
		client: goopenai.NewClientWithConfig(config),
		model:  options.model,
	}, nil
}

// Call generates a response from the LLM for the given prompt.
func (o *LLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o, prompt, options...)
}

// GenerateContent implements the llms.Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := &llms.CallOptions{}
	for _, opt := range options {
		opt(opts)
	}

	req := goopenai.ChatCompletionRequest{
		Model:       o.modelString(opts),
		Messages:    convertMessages(messages),
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}

	if opts.JSONMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	for _, tool := range opts.Tools {
		if tool.Function == nil {
			continue
		}
		req.Tools = append(req.Tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		})
	}

	if tc, ok := opts.ToolChoice.(llms.ToolChoice); ok && tc.Function != nil {
		req.ToolChoice = goopenai.ToolChoice{
			Type:     goopenai.ToolTypeFunction,
			Function: goopenai.ToolFunction{Name: tc.Function.Name},
		}
	}

	result, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	resp := &llms.ContentResponse{}
	for _, choice := range result.Choices {
		contentChoice := &llms.ContentChoice{
			Content:    choice.Message.Content,
			StopReason: string(choice.FinishReason),
		}
		for _, tc := range choice.Message.ToolCalls {
			contentChoice.ToolCalls = append(contentChoice.ToolCalls, llms.ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		if result.Usage.TotalTokens > 0 {
			contentChoice.GenerationInfo = map[string]any{
				"prompt_tokens":     result.Usage.PromptTokens,
				"completion_tokens": result.Usage.CompletionTokens,
				"total_tokens":      result.Usage.TotalTokens,
			}
		}
		resp.Choices = append(resp.Choices, contentChoice)
	}

	return resp, nil
}

func (o *LLM) modelString(opts *llms.CallOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return o.model
}

// convertMessages maps langchaingo message content to the chat completion
// wire format. Only text parts are forwarded.
func convertMessages(messages []llms.MessageContent) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := goopenai.ChatMessageRoleUser
		switch msg.Role {
		case llms.ChatMessageTypeSystem:
			role = goopenai.ChatMessageRoleSystem
		case llms.ChatMessageTypeAI:
			role = goopenai.ChatMessageRoleAssistant
		case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
			role = goopenai.ChatMessageRoleUser
		case llms.ChatMessageTypeTool:
			role = goopenai.ChatMessageRoleTool
		}

		var content strings.Builder
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				content.WriteString(text.Text)
			}
		}

		out = append(out, goopenai.ChatCompletionMessage{
			Role:    role,
			Content: content.String(),
		})
	}
	return out
}
