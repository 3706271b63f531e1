// Package provider abstracts the model provider protocol: a request carries
// the model id, message history, tool definitions, and generation settings;
// a response carries the assistant message plus stop reason and token usage.
// Transports adapt this shape to concrete provider SDKs.
package provider

import (
	"context"
	"fmt"

	"github.com/dimas/aruna/pkg/message"
	"github.com/dimas/aruna/pkg/tool"
)

// Request is one message-generation request.
type Request struct {
	Model       string
	Messages    []message.Message
	Tools       []tool.Def
	MaxTokens   int
	System      string
	Temperature *float64
}

// Usage is the token accounting of one response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the assistant's reply to one request.
type Response struct {
	ID         string
	Model      string
	Role       string
	Content    []message.ContentBlock
	StopReason string
	Usage      Usage
}

// Message converts the response into a history entry.
func (r *Response) Message() message.Message {
	role := r.Role
	if role == "" {
		role = message.RoleAssistant
	}
	return message.Message{Role: role, Content: r.Content}
}

// Transport sends requests to a model provider. Errors are returned as-is;
// retries, if desired, belong to the transport implementation and are not
// layered here.
type Transport interface {
	// Name identifies the provider, e.g. "anthropic".
	Name() string
	// Send performs one request/response round-trip.
	Send(ctx context.Context, req Request) (*Response, error)
}

// New constructs a transport by provider name.
func New(providerName, apiKey string) (Transport, error) {
	switch providerName {
	case "anthropic":
		return NewAnthropic(apiKey), nil
	case "openai":
		return NewOpenAI(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}
}
