// Package message defines the conversation message model shared by the
// provider transport, the tool registry, and the chat orchestrator.
//
// A message carries an ordered list of content blocks. Blocks are a tagged
// union on the wire (the "type" field): plain text, a tool-use request
// issued by the model, or a tool result fed back to it. Tool results only
// ever appear inside user-role messages; tool uses only inside
// assistant-role messages.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Roles used by the provider protocol.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block type discriminators.
const (
	TypeText       = "text"
	TypeToolUse    = "tool_use"
	TypeToolResult = "tool_result"
)

// Message is one entry in a conversation history.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one element of a message. Exactly one variant is active,
// selected by Type.
type ContentBlock struct {
	Type string

	// Text variant.
	Text string

	// ToolUse variant.
	ID    string
	Name  string
	Input json.RawMessage

	// ToolResult variant.
	ToolUseID string
	Content   string
	IsError   bool
}

// NewTextBlock returns a text content block.
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: TypeText, Text: text}
}

// NewToolUseBlock returns a tool-use content block.
func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{Type: TypeToolUse, ID: id, Name: name, Input: input}
}

// NewToolResultBlock returns a tool-result content block.
func NewToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: TypeToolResult, ToolUseID: toolUseID, Content: content, IsError: isError}
}

// NewUserMessage builds a user-role message from blocks.
func NewUserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// NewAssistantMessage builds an assistant-role message from blocks.
func NewAssistantMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks}
}

// ToolUse describes a tool invocation requested by the model.
type ToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// HasToolUse reports whether the message contains any tool-use block.
func (m Message) HasToolUse() bool {
	for _, b := range m.Content {
		if b.Type == TypeToolUse {
			return true
		}
	}
	return false
}

// ToolUses extracts all tool-use requests in block order.
func (m Message) ToolUses() []ToolUse {
	var uses []ToolUse
	for _, b := range m.Content {
		if b.Type == TypeToolUse {
			uses = append(uses, ToolUse{ID: b.ID, Name: b.Name, Input: b.Input})
		}
	}
	return uses
}

// Text joins all text blocks of the message with newlines.
func (m Message) Text() string {
	var parts []string
	for _, b := range m.Content {
		if b.Type == TypeText {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

type textBlockJSON struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolUseBlockJSON struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type toolResultBlockJSON struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   *bool  `json:"is_error,omitempty"`
}

// MarshalJSON serializes the block in provider wire shape. The is_error
// field is omitted entirely when unset.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case TypeText:
		return json.Marshal(textBlockJSON{Type: TypeText, Text: b.Text})
	case TypeToolUse:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return json.Marshal(toolUseBlockJSON{Type: TypeToolUse, ID: b.ID, Name: b.Name, Input: input})
	case TypeToolResult:
		out := toolResultBlockJSON{Type: TypeToolResult, ToolUseID: b.ToolUseID, Content: b.Content}
		if b.IsError {
			v := true
			out.IsError = &v
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("unknown content block type %q", b.Type)
	}
}

// UnmarshalJSON parses a block from provider wire shape.
func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Type {
	case TypeText:
		var t textBlockJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*b = ContentBlock{Type: TypeText, Text: t.Text}
	case TypeToolUse:
		var t toolUseBlockJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*b = ContentBlock{Type: TypeToolUse, ID: t.ID, Name: t.Name, Input: t.Input}
	case TypeToolResult:
		var t toolResultBlockJSON
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*b = ContentBlock{
			Type:      TypeToolResult,
			ToolUseID: t.ToolUseID,
			Content:   t.Content,
			IsError:   t.IsError != nil && *t.IsError,
		}
	default:
		return fmt.Errorf("unknown content block type %q", probe.Type)
	}
	return nil
}
