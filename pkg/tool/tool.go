// Package tool defines the capability contract for model-invocable tools
// and the registry that dispatches permission-gated executions.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is a named unit of external functionality the model can invoke.
// Implementations are constructed once at process start and must be safe
// for shared read-only use.
type Tool interface {
	// Name is the unique registry key for this tool.
	Name() string
	// Description tells the model what the tool does.
	Description() string
	// InputSchema is the JSON schema of the expected input.
	InputSchema() map[string]interface{}
	// Execute runs the tool. The input has already been validated against
	// InputSchema by the registry.
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// Def is the wire descriptor of a tool, included in provider requests.
type Def struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// DefOf builds the wire descriptor for a tool.
func DefOf(t Tool) Def {
	return Def{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema(),
	}
}
