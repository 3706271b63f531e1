package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dimas/aruna/internal/observability"
	"github.com/dimas/aruna/pkg/message"
)

// Anthropic is the Transport backed by the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic creates a transport using the given API key.
func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Name returns "anthropic".
func (a *Anthropic) Name() string {
	return "anthropic"
}

// Send performs one Messages API call.
func (a *Anthropic) Send(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  toAnthropicMessages(req.Messages),
		MaxTokens: int64(req.MaxTokens),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, def := range req.Tools {
			toolParam := anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: def.InputSchema["properties"],
				},
			}
			toolParam.InputSchema.Required = requiredFields(def.InputSchema)
			tools = append(tools, anthropic.ToolUnionParam{OfTool: &toolParam})
		}
		params.Tools = tools
	}

	start := time.Now()
	resp, err := a.client.Messages.New(ctx, params)
	observability.RecordProviderRequest(a.Name(), time.Since(start), err == nil)
	if err != nil {
		return nil, err
	}

	blocks := make([]message.ContentBlock, 0, len(resp.Content))
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, message.NewTextBlock(b.Text))
		case anthropic.ToolUseBlock:
			blocks = append(blocks, message.NewToolUseBlock(
				b.ID, b.Name, json.RawMessage(b.JSON.Input.Raw()),
			))
		}
	}

	return &Response{
		ID:         resp.ID,
		Model:      string(resp.Model),
		Role:       message.RoleAssistant,
		Content:    blocks,
		StopReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

func toAnthropicMessages(history []message.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(history))
	for _, msg := range history {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch block.Type {
			case message.TypeText:
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			case message.TypeToolUse:
				blocks = append(blocks, anthropic.NewToolUseBlock(
					block.ID, block.Input, block.Name,
				))
			case message.TypeToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(
					block.ToolUseID, block.Content, block.IsError,
				))
			}
		}
		role := anthropic.MessageParamRoleUser
		if msg.Role == message.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

func requiredFields(schema map[string]interface{}) []string {
	required, ok := schema["required"]
	if !ok {
		return nil
	}
	switch v := required.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
