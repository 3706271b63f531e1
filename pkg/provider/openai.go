package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/dimas/aruna/internal/observability"
	"github.com/dimas/aruna/pkg/message"
)

// OpenAI is the Transport backed by the Chat Completions API. Tool use and
// tool result blocks are translated to the tool_calls / tool-message shape
// the API expects.
type OpenAI struct {
	client openai.Client
}

// NewOpenAI creates a transport using the given API key.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns "openai".
func (o *OpenAI) Name() string {
	return "openai"
}

// Send performs one Chat Completions API call.
func (o *OpenAI) Send(ctx context.Context, req Request) (*Response, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		messages = append(messages, toOpenAIMessages(msg)...)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, def := range req.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        def.Name,
					Description: openai.String(def.Description),
					Parameters:  openai.FunctionParameters(def.InputSchema),
				},
			})
		}
		params.Tools = tools
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, params)
	observability.RecordProviderRequest(o.Name(), time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	choice := resp.Choices[0]
	blocks := []message.ContentBlock{}
	if choice.Message.Content != "" {
		blocks = append(blocks, message.NewTextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		if !json.Valid([]byte(tc.Function.Arguments)) {
			return nil, fmt.Errorf("invalid tool arguments for %s: %s", tc.Function.Name, tc.Function.Arguments)
		}
		blocks = append(blocks, message.NewToolUseBlock(
			tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments),
		))
	}

	return &Response{
		ID:         resp.ID,
		Model:      resp.Model,
		Role:       message.RoleAssistant,
		Content:    blocks,
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

// toOpenAIMessages flattens one history message into the chat completion
// shape. A user message carrying tool results becomes one tool message per
// result; an assistant message carrying tool uses becomes a single assistant
// message with tool_calls.
func toOpenAIMessages(msg message.Message) []openai.ChatCompletionMessageParamUnion {
	out := []openai.ChatCompletionMessageParamUnion{}

	if msg.Role == message.RoleAssistant {
		toolCalls := []openai.ChatCompletionMessageToolCall{}
		for _, use := range msg.ToolUses() {
			args := string(use.Input)
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCall{
				ID:   use.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunction{
					Name:      use.Name,
					Arguments: args,
				},
			})
		}
		if len(toolCalls) > 0 {
			assistantMsg := openai.ChatCompletionMessage{
				Role:      "assistant",
				Content:   msg.Text(),
				ToolCalls: toolCalls,
			}
			return append(out, assistantMsg.ToParam())
		}
		return append(out, openai.AssistantMessage(msg.Text()))
	}

	for _, block := range msg.Content {
		switch block.Type {
		case message.TypeText:
			out = append(out, openai.UserMessage(block.Text))
		case message.TypeToolResult:
			out = append(out, openai.ToolMessage(block.Content, block.ToolUseID))
		}
	}
	return out
}
