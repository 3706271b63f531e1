// Package execution tracks the lifecycle of individual tool invocations.
//
// A record moves Pending -> Executing -> one terminal state. Transitions are
// one-directional; once a record is finished its state, completion time, and
// duration never change. A caller that wants to retry issues a fresh
// invocation with a new id.
package execution

import (
	"encoding/json"
	"time"
)

// State is the lifecycle phase of a tool invocation.
type State string

const (
	StatePending   State = "pending"
	StateExecuting State = "executing"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateDenied    State = "denied"
)

// Record tracks one tool invocation from dispatch to a terminal state.
// The id is the provider-supplied tool_use id, unique per invocation.
type Record struct {
	ID          string          `json:"id"`
	ToolName    string          `json:"tool_name"`
	Input       json.RawMessage `json:"input"`
	State       State           `json:"state"`
	Result      string          `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DurationMS  *int64          `json:"duration_ms,omitempty"`
}

// NewRecord creates a record in the pending state.
func NewRecord(id, toolName string, input json.RawMessage) *Record {
	return &Record{
		ID:        id,
		ToolName:  toolName,
		Input:     input,
		State:     StatePending,
		StartedAt: time.Now().UTC(),
	}
}

// Start marks the record as executing. No-op unless pending.
func (r *Record) Start() {
	if r.State != StatePending {
		return
	}
	r.State = StateExecuting
	r.StartedAt = time.Now().UTC()
}

// Complete marks the record as completed with a result.
func (r *Record) Complete(result string) {
	if r.Finished() {
		return
	}
	r.finish()
	r.State = StateCompleted
	r.Result = result
}

// Fail marks the record as failed with an error message.
func (r *Record) Fail(errMsg string) {
	if r.Finished() {
		return
	}
	r.finish()
	r.State = StateFailed
	r.Error = errMsg
}

// Deny marks the record as denied. Legal directly from pending: a denial
// means the tool body never ran.
func (r *Record) Deny(reason string) {
	if r.Finished() {
		return
	}
	r.finish()
	r.State = StateDenied
	r.Reason = reason
}

// Finished reports whether the record reached a terminal state.
func (r *Record) Finished() bool {
	switch r.State {
	case StateCompleted, StateFailed, StateDenied:
		return true
	}
	return false
}

// Err returns the failure or denial message, empty otherwise.
func (r *Record) Err() string {
	switch r.State {
	case StateFailed:
		return r.Error
	case StateDenied:
		return r.Reason
	}
	return ""
}

func (r *Record) finish() {
	now := time.Now().UTC()
	r.CompletedAt = &now
	ms := now.Sub(r.StartedAt).Milliseconds()
	r.DurationMS = &ms
}
