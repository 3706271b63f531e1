// Package permission decides whether a pending tool invocation may run.
//
// A Handler is consulted once per dispatch with the tool name, input, and
// description, and returns an allow or deny decision. Variants range from
// constant policies used in tests to the interactive handler in memory.go
// that remembers always-allow/always-deny choices across a session.
package permission

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// DecisionKind discriminates allow from deny.
type DecisionKind int

const (
	KindAllow DecisionKind = iota
	KindDeny
)

// Decision is the outcome of a permission check.
type Decision struct {
	Kind   DecisionKind
	Reason string
}

// Allow permits the execution.
func Allow() Decision {
	return Decision{Kind: KindAllow}
}

// Deny blocks the execution without explanation.
func Deny() Decision {
	return Decision{Kind: KindDeny}
}

// DenyWithReason blocks the execution with a message surfaced to the model.
func DenyWithReason(reason string) Decision {
	return Decision{Kind: KindDeny, Reason: reason}
}

// Allowed reports whether the decision permits execution.
func (d Decision) Allowed() bool {
	return d.Kind == KindAllow
}

// Request describes a pending tool invocation for a permission check.
// It is not retained beyond the check.
type Request struct {
	ToolUseID       string
	ToolName        string
	Input           json.RawMessage
	ToolDescription string
}

// Handler decides whether a tool invocation may proceed. CheckPermission
// may block on human interaction; it receives the dispatch context.
type Handler interface {
	CheckPermission(ctx context.Context, req Request) Decision
}

// AllowAll permits every execution. The registry default.
type AllowAll struct{}

func (AllowAll) CheckPermission(ctx context.Context, req Request) Decision {
	return Allow()
}

// DenyAll blocks every execution.
type DenyAll struct{}

func (DenyAll) CheckPermission(ctx context.Context, req Request) Decision {
	return Deny()
}

// LogOnly permits every execution after writing a log line. Useful for
// auditing tool usage in non-interactive runs.
type LogOnly struct{}

func (LogOnly) CheckPermission(ctx context.Context, req Request) Decision {
	log.Info().
		Str("tool", req.ToolName).
		RawJSON("input", normalizeInput(req.Input)).
		Msg("Allowing tool execution")
	return Allow()
}

// Policy allows listed tool names and applies a configurable default to
// the rest.
type Policy struct {
	allowed      map[string]struct{}
	defaultAllow bool
}

// NewPolicy builds a policy from an allow-list and a default for unlisted
// names.
func NewPolicy(allowedTools []string, defaultAllow bool) *Policy {
	allowed := make(map[string]struct{}, len(allowedTools))
	for _, name := range allowedTools {
		allowed[name] = struct{}{}
	}
	return &Policy{allowed: allowed, defaultAllow: defaultAllow}
}

func (p *Policy) CheckPermission(ctx context.Context, req Request) Decision {
	if _, ok := p.allowed[req.ToolName]; ok {
		return Allow()
	}
	if p.defaultAllow {
		return Allow()
	}
	return DenyWithReason("tool '" + req.ToolName + "' is not in the allowed tools list")
}

func normalizeInput(input json.RawMessage) json.RawMessage {
	if len(input) == 0 {
		return json.RawMessage(`{}`)
	}
	return input
}
