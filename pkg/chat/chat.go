// Package chat drives the multi-round conversation loop: send the history
// to the model, dispatch any tool uses it requests through the registry,
// feed the results back, and repeat until the model answers in plain text,
// a denial pauses the turn, or the round budget runs out.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dimas/aruna/internal/observability"
	"github.com/dimas/aruna/pkg/message"
	"github.com/dimas/aruna/pkg/provider"
	"github.com/dimas/aruna/pkg/tool"
)

// ErrMaxIterations is returned when a turn exhausts its round budget
// without the model producing a final text answer.
var ErrMaxIterations = errors.New("maximum tool execution rounds exceeded")

// DefaultMaxIterations bounds the model/tool round-trips within one turn.
const DefaultMaxIterations = 10

// Status is the outcome of a turn.
type Status string

const (
	// StatusCompleted means the model produced a final text answer.
	StatusCompleted Status = "completed"
	// StatusPaused means a tool execution was denied and the turn stopped
	// before sending the results back to the model. The denial is already
	// part of the history, so the next turn resumes from it.
	StatusPaused Status = "paused"
)

// Options configures an orchestrator.
type Options struct {
	Model           string
	System          string
	MaxTokens       int
	Temperature     *float64
	MaxIterations   int
	MaxResultLength int
	Logger          zerolog.Logger
}

// Turn is the result of one user turn.
type Turn struct {
	Status Status
	// Text is the concatenated text of the last assistant message.
	Text   string
	Rounds int
	Usage  provider.Usage
}

// Orchestrator owns the conversation history and runs turns against a
// transport and a tool registry.
type Orchestrator struct {
	transport provider.Transport
	registry  *tool.Registry
	history   []message.Message
	opts      Options
	logger    zerolog.Logger
}

// New creates an orchestrator with an empty history.
func New(transport provider.Transport, registry *tool.Registry, opts Options) *Orchestrator {
	observability.EnsureRegistered()

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	return &Orchestrator{
		transport: transport,
		registry:  registry,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// History returns a copy of the conversation history.
func (o *Orchestrator) History() []message.Message {
	out := make([]message.Message, len(o.history))
	copy(out, o.history)
	return out
}

// SetHistory replaces the conversation history, e.g. after loading a
// saved conversation.
func (o *Orchestrator) SetHistory(history []message.Message) {
	o.history = append([]message.Message(nil), history...)
}

// SetModel switches the model used for subsequent turns.
func (o *Orchestrator) SetModel(model string) {
	o.opts.Model = model
}

// Model returns the model used for turns.
func (o *Orchestrator) Model() string {
	return o.opts.Model
}

// RunTurn drives the round loop until the model stops requesting tools,
// a denial pauses the turn, or the round budget is exhausted. The loop
// operates on a working copy of the history; it is committed only when
// the turn reaches a defined outcome, so an aborted turn leaves the
// conversation exactly as it was.
func (o *Orchestrator) RunTurn(ctx context.Context, userText string) (*Turn, error) {
	working := append(o.History(), message.NewUserMessage(message.NewTextBlock(userText)))

	started := time.Now()
	var usage provider.Usage

	for round := 1; round <= o.opts.MaxIterations; round++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := o.transport.Send(ctx, provider.Request{
			Model:       o.opts.Model,
			Messages:    working,
			Tools:       o.registry.Defs(),
			MaxTokens:   o.opts.MaxTokens,
			System:      o.opts.System,
			Temperature: o.opts.Temperature,
		})
		if err != nil {
			observability.RecordTurn("error", round, time.Since(started))
			return nil, fmt.Errorf("provider request failed: %w", err)
		}

		usage.InputTokens += resp.Usage.InputTokens
		usage.OutputTokens += resp.Usage.OutputTokens

		assistant := resp.Message()
		working = append(working, assistant)

		uses := assistant.ToolUses()
		if len(uses) == 0 {
			o.history = working
			observability.RecordTurn(string(StatusCompleted), round, time.Since(started))
			return &Turn{
				Status: StatusCompleted,
				Text:   assistant.Text(),
				Rounds: round,
				Usage:  usage,
			}, nil
		}

		o.logger.Debug().
			Int("round", round).
			Int("tool_uses", len(uses)).
			Str("stop_reason", resp.StopReason).
			Msg("Dispatching requested tools")

		results, denied, err := o.dispatch(ctx, uses)
		if err != nil {
			observability.RecordTurn("error", round, time.Since(started))
			return nil, err
		}
		working = append(working, message.Message{
			Role:    message.RoleUser,
			Content: results,
		})

		if denied {
			o.history = working
			o.logger.Info().Int("round", round).Msg("Turn paused on denied tool execution")
			observability.RecordTurn(string(StatusPaused), round, time.Since(started))
			return &Turn{
				Status: StatusPaused,
				Text:   assistant.Text(),
				Rounds: round,
				Usage:  usage,
			}, nil
		}
	}

	observability.RecordTurn("aborted", o.opts.MaxIterations, time.Since(started))
	return nil, fmt.Errorf("%w (%d)", ErrMaxIterations, o.opts.MaxIterations)
}

// dispatch executes the requested tools in order and returns one result
// block per request. It reports whether any execution was denied.
func (o *Orchestrator) dispatch(ctx context.Context, uses []message.ToolUse) ([]message.ContentBlock, bool, error) {
	results := make([]message.ContentBlock, 0, len(uses))
	denied := false

	for _, use := range uses {
		block, err := o.registry.ExecuteTool(ctx, use.Name, use.Input, use.ID)
		if err != nil {
			return nil, false, fmt.Errorf("tool dispatch failed: %w", err)
		}
		block.Content = o.truncate(block.Content)
		if block.IsError && strings.Contains(block.Content, "denied") {
			denied = true
		}
		results = append(results, block)
	}
	return results, denied, nil
}

func (o *Orchestrator) truncate(content string) string {
	limit := o.opts.MaxResultLength
	if limit <= 0 || len(content) <= limit {
		return content
	}
	return content[:limit] + "\n... [result truncated]"
}
