package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Think gives the model a scratchpad round. It only reflects the topic
// back with prompts to reason about it.
type Think struct{}

func (t *Think) Name() string { return "think" }

func (t *Think) Description() string {
	return "Think more deeply about a topic or problem, exploring different angles, implications, and considerations"
}

func (t *Think) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"topic": map[string]interface{}{
				"type":        "string",
				"description": "The topic or problem to think more deeply about",
			},
		},
		"required":             []string{"topic"},
		"additionalProperties": false,
	}
}

func (t *Think) Execute(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal(input, &in); err != nil || in.Topic == "" {
		return "", fmt.Errorf("missing 'topic' field. Example: {\"topic\": \"the implications of this design decision\"}")
	}

	return fmt.Sprintf("Let me think more deeply about: %s\n\n"+
		"I should consider:\n"+
		"- The core aspects and underlying principles\n"+
		"- Potential implications and consequences\n"+
		"- Alternative perspectives and approaches\n"+
		"- Edge cases and potential challenges\n"+
		"- How this connects to broader patterns\n"+
		"- What questions I should be asking\n\n"+
		"Thinking...", in.Topic), nil
}
