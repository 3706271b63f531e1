package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/dimas/aruna/internal/observability"
	"github.com/dimas/aruna/pkg/execution"
	"github.com/dimas/aruna/pkg/message"
	"github.com/dimas/aruna/pkg/permission"
)

var (
	// ErrDuplicateName is returned when registering a tool whose name is
	// already taken.
	ErrDuplicateName = errors.New("tool name already registered")
	// ErrToolNotFound is returned when dispatch references an unregistered
	// tool name. This is an orchestration bug, not a tool failure, so it
	// surfaces as an error rather than an error tool result.
	ErrToolNotFound = errors.New("tool not found")
)

// Registry owns the set of registered tools, one permission handler, and
// the append-only log of execution records. The single dispatch entry
// point is ExecuteTool.
type Registry struct {
	mu         sync.Mutex
	tools      map[string]Tool
	schemas    map[string]*gojsonschema.Schema
	executions []*execution.Record
	handler    permission.Handler
}

// NewRegistry creates an empty registry that allows all executions.
func NewRegistry() *Registry {
	return NewRegistryWithHandler(permission.AllowAll{})
}

// NewRegistryWithHandler creates an empty registry with a custom
// permission handler.
func NewRegistryWithHandler(handler permission.Handler) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*gojsonschema.Schema),
		handler: handler,
	}
}

// SetHandler replaces the permission handler.
func (r *Registry) SetHandler(handler permission.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = handler
}

// Register adds a tool. Names are the only identity, so a collision is
// rejected and the first registration stays intact.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	schema, err := compileSchema(t.InputSchema())
	if err != nil {
		return fmt.Errorf("invalid input schema for tool %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	r.tools[name] = t
	r.schemas[name] = schema

	log.Debug().Str("tool", name).Msg("Tool registered")
	return nil
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tools[name]
	return ok
}

// Get returns a registered tool, or nil.
func (r *Registry) Get(name string) Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tools[name]
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defs returns the wire descriptors of all registered tools, sorted by
// name so requests are reproducible.
func (r *Registry) Defs() []Def {
	r.mu.Lock()
	defer r.mu.Unlock()
	defs := make([]Def, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, DefOf(t))
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// ExecuteTool dispatches one tool invocation: permission check, execution,
// and record keeping. Tool failures and denials come back as error-flagged
// tool_result blocks the conversation can continue from; an unknown tool
// name is a hard error and leaves no record. Every other call appends
// exactly one execution record to the log.
func (r *Registry) ExecuteTool(ctx context.Context, name string, input json.RawMessage, toolUseID string) (message.ContentBlock, error) {
	r.mu.Lock()
	t := r.tools[name]
	schema := r.schemas[name]
	handler := r.handler
	r.mu.Unlock()

	if t == nil {
		log.Error().Str("tool", name).Msg("Tool not found")
		return message.ContentBlock{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	rec := execution.NewRecord(toolUseID, name, input)
	started := time.Now()

	// The permission check is the one point in dispatch that may block on
	// human interaction. The registry lock is not held here.
	decision := handler.CheckPermission(ctx, permission.Request{
		ToolUseID:       toolUseID,
		ToolName:        name,
		Input:           input,
		ToolDescription: t.Description(),
	})

	if !decision.Allowed() {
		rec.Deny(denialReason(decision))
		r.appendRecord(rec)
		observability.RecordToolExecution(name, string(execution.StateDenied), time.Since(started))
		observability.RecordToolAudit(name, string(execution.StateDenied), map[string]interface{}{
			"tool_use_id": toolUseID,
			"reason":      decision.Reason,
		})

		log.Warn().Str("tool", name).Str("reason", decision.Reason).Msg("Tool execution denied")
		return message.NewToolResultBlock(toolUseID, denialContent(decision), true), nil
	}

	rec.Start()
	r.appendRecord(rec)

	if err := validateInput(schema, input); err != nil {
		rec.Fail(err.Error())
		observability.RecordToolExecution(name, string(execution.StateFailed), time.Since(started))

		log.Warn().Str("tool", name).Err(err).Msg("Tool input validation failed")
		return message.NewToolResultBlock(toolUseID, "Tool execution failed: "+err.Error(), true), nil
	}

	output, err := t.Execute(ctx, input)
	if err != nil {
		rec.Fail(err.Error())
		observability.RecordToolExecution(name, string(execution.StateFailed), time.Since(started))
		observability.RecordToolAudit(name, string(execution.StateFailed), map[string]interface{}{
			"tool_use_id": toolUseID,
			"error":       err.Error(),
		})

		log.Warn().Str("tool", name).Err(err).Msg("Tool execution failed")
		return message.NewToolResultBlock(toolUseID, "Tool execution failed: "+err.Error(), true), nil
	}

	rec.Complete(output)
	observability.RecordToolExecution(name, string(execution.StateCompleted), time.Since(started))
	observability.RecordToolAudit(name, string(execution.StateCompleted), map[string]interface{}{
		"tool_use_id": toolUseID,
	})

	log.Debug().
		Str("tool", name).
		Dur("duration", time.Since(started)).
		Msg("Tool execution completed")
	return message.NewToolResultBlock(toolUseID, output, false), nil
}

// History returns a copy of the execution log in dispatch order.
func (r *Registry) History() []*execution.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*execution.Record, len(r.executions))
	copy(out, r.executions)
	return out
}

// ClearHistory drops the execution log. Individual records are never
// removed; clearing is the only mutation besides append.
func (r *Registry) ClearHistory() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions = nil
}

// Stats summarizes the execution log by terminal state. The executing
// count covers records that never reached a terminal state, a signal of
// stuck invocations.
func (r *Registry) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := map[string]int{
		"total":     len(r.executions),
		"completed": 0,
		"failed":    0,
		"denied":    0,
		"executing": 0,
	}
	for _, rec := range r.executions {
		switch rec.State {
		case execution.StateCompleted:
			stats["completed"]++
		case execution.StateFailed:
			stats["failed"]++
		case execution.StateDenied:
			stats["denied"]++
		case execution.StateExecuting:
			stats["executing"]++
		}
	}
	return stats
}

func (r *Registry) appendRecord(rec *execution.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions = append(r.executions, rec)
}

func compileSchema(schema map[string]interface{}) (*gojsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}
	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
}

func validateInput(schema *gojsonschema.Schema, input json.RawMessage) error {
	if schema == nil {
		return nil
	}
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(input))
	if err != nil {
		return fmt.Errorf("input validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid input: %v", msgs)
	}
	return nil
}

func denialReason(d permission.Decision) string {
	if d.Reason != "" {
		return d.Reason
	}
	return "Permission denied"
}

func denialContent(d permission.Decision) string {
	if d.Reason != "" {
		return "Tool execution denied: " + d.Reason
	}
	return "Tool execution denied"
}
