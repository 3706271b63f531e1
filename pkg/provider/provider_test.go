package provider

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimas/aruna/pkg/message"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("mistral", "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral")
}

func TestNewKnownProviders(t *testing.T) {
	for _, name := range []string{"anthropic", "openai"} {
		transport, err := New(name, "test-key")
		require.NoError(t, err)
		assert.Equal(t, name, transport.Name())
	}
}

func TestToAnthropicMessagesRoles(t *testing.T) {
	history := []message.Message{
		message.NewUserMessage(message.NewTextBlock("hi")),
		message.NewAssistantMessage(
			message.NewTextBlock("let me check"),
			message.NewToolUseBlock("tu_1", "calculator", json.RawMessage(`{"expression":"1+1"}`)),
		),
		message.NewUserMessage(message.NewToolResultBlock("tu_1", "2", false)),
	}

	params := toAnthropicMessages(history)
	require.Len(t, params, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, params[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, params[1].Role)
	assert.Len(t, params[1].Content, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, params[2].Role)
}

func TestToOpenAIMessagesSplitsToolResults(t *testing.T) {
	msg := message.NewUserMessage(
		message.NewToolResultBlock("call_1", "ok", false),
		message.NewToolResultBlock("call_2", "also ok", false),
	)

	out := toOpenAIMessages(msg)
	assert.Len(t, out, 2)
}

func TestToOpenAIMessagesAssistantToolCalls(t *testing.T) {
	msg := message.NewAssistantMessage(
		message.NewTextBlock("running it"),
		message.NewToolUseBlock("call_1", "bash", json.RawMessage(`{"command":"ls"}`)),
	)

	out := toOpenAIMessages(msg)
	require.Len(t, out, 1)
}

func TestRequiredFields(t *testing.T) {
	assert.Nil(t, requiredFields(map[string]interface{}{"type": "object"}))
	assert.Equal(t, []string{"a"}, requiredFields(map[string]interface{}{
		"required": []string{"a"},
	}))
	assert.Equal(t, []string{"a", "b"}, requiredFields(map[string]interface{}{
		"required": []interface{}{"a", "b"},
	}))
}

func TestResponseMessage(t *testing.T) {
	resp := &Response{
		Content: []message.ContentBlock{message.NewTextBlock("done")},
	}
	msg := resp.Message()
	assert.Equal(t, message.RoleAssistant, msg.Role)
	assert.Equal(t, "done", msg.Text())
}
