package permission

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/dimas/aruna/internal/observability"
)

// Choice is the user's answer to an interactive permission prompt.
type Choice int

const (
	// ChoiceAllowAlways allows this execution and remembers the tool.
	ChoiceAllowAlways Choice = iota
	// ChoiceAllowOnce allows this execution only.
	ChoiceAllowOnce
	// ChoiceDenyAlways denies this execution and remembers the tool.
	ChoiceDenyAlways
	// ChoiceDenyOnce denies this execution only.
	ChoiceDenyOnce
)

// Prompter presents a pending tool invocation to the human and returns
// their choice. Implementations block until the user answers.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (Choice, error)
}

// Memory is the interactive permission handler with remembered decisions.
// Tool names in the always-allow set are permitted without prompting; names
// in the always-deny set are refused without prompting; everything else
// goes to the Prompter. The always-allow set takes precedence when a name
// somehow appears in both.
//
// The sets are shared mutable state: the prompt blocks while other work may
// be in flight, so the mutex is held only around set reads and writes,
// never across the prompt itself.
type Memory struct {
	mu          sync.Mutex
	alwaysAllow map[string]struct{}
	alwaysDeny  map[string]struct{}
	prompter    Prompter
}

// NewMemory creates an interactive handler with empty memory.
func NewMemory(prompter Prompter) *Memory {
	return &Memory{
		alwaysAllow: make(map[string]struct{}),
		alwaysDeny:  make(map[string]struct{}),
		prompter:    prompter,
	}
}

// CheckPermission implements Handler.
func (m *Memory) CheckPermission(ctx context.Context, req Request) Decision {
	m.mu.Lock()
	_, allowed := m.alwaysAllow[req.ToolName]
	_, denied := m.alwaysDeny[req.ToolName]
	m.mu.Unlock()

	// Always-allow wins over always-deny so a conflicting state resolves
	// to allow.
	if allowed {
		log.Debug().Str("tool", req.ToolName).Msg("Automatically allowing tool (always allow)")
		return Allow()
	}
	if denied {
		log.Debug().Str("tool", req.ToolName).Msg("Automatically denying tool (always deny)")
		return DenyWithReason("Tool was previously set to never allow")
	}

	choice, err := m.prompter.Prompt(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("tool", req.ToolName).Msg("Permission prompt failed, denying")
		return DenyWithReason("Permission prompt failed: " + err.Error())
	}

	switch choice {
	case ChoiceAllowAlways:
		m.mu.Lock()
		m.alwaysAllow[req.ToolName] = struct{}{}
		m.mu.Unlock()
		observability.RecordPermissionAudit("always_allow", req.ToolName)
		return Allow()
	case ChoiceAllowOnce:
		return Allow()
	case ChoiceDenyAlways:
		m.mu.Lock()
		m.alwaysDeny[req.ToolName] = struct{}{}
		m.mu.Unlock()
		observability.RecordPermissionAudit("always_deny", req.ToolName)
		return DenyWithReason("User chose to never allow this tool")
	default:
		return DenyWithReason("User denied permission for this execution")
	}
}

// Snapshot returns the remembered sets as sorted slices for persistence.
func (m *Memory) Snapshot() (alwaysAllow, alwaysDeny []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.alwaysAllow {
		alwaysAllow = append(alwaysAllow, name)
	}
	for name := range m.alwaysDeny {
		alwaysDeny = append(alwaysDeny, name)
	}
	sort.Strings(alwaysAllow)
	sort.Strings(alwaysDeny)
	return alwaysAllow, alwaysDeny
}

// Restore replaces the remembered sets, e.g. after loading a saved
// conversation.
func (m *Memory) Restore(alwaysAllow, alwaysDeny []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alwaysAllow = make(map[string]struct{}, len(alwaysAllow))
	for _, name := range alwaysAllow {
		m.alwaysAllow[name] = struct{}{}
	}
	m.alwaysDeny = make(map[string]struct{}, len(alwaysDeny))
	for _, name := range alwaysDeny {
		m.alwaysDeny[name] = struct{}{}
	}
}

// TerminalPrompter prompts on a terminal, reading one of 1-4 from the
// reader. Diff-shaped inputs (patch_file) are rendered with per-line
// coloring so the user can review proposed changes before approving.
type TerminalPrompter struct {
	reader io.Reader
	writer io.Writer
}

// NewTerminalPrompter creates a prompter bound to the given streams.
func NewTerminalPrompter(reader io.Reader, writer io.Writer) *TerminalPrompter {
	return &TerminalPrompter{reader: reader, writer: writer}
}

// Prompt implements Prompter.
func (p *TerminalPrompter) Prompt(ctx context.Context, req Request) (Choice, error) {
	p.display(req)

	scanner := bufio.NewScanner(p.reader)
	for {
		select {
		case <-ctx.Done():
			return ChoiceDenyOnce, ctx.Err()
		default:
		}

		fmt.Fprint(p.writer, "  Choice [1-4] (default 2): ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return ChoiceDenyOnce, fmt.Errorf("failed to read input: %w", err)
			}
			// EOF counts as a one-time denial.
			return ChoiceDenyOnce, nil
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			return ChoiceAllowAlways, nil
		case "2", "":
			return ChoiceAllowOnce, nil
		case "3":
			return ChoiceDenyAlways, nil
		case "4":
			return ChoiceDenyOnce, nil
		default:
			fmt.Fprintln(p.writer, "  Please answer 1, 2, 3 or 4.")
		}
	}
}

func (p *TerminalPrompter) display(req Request) {
	yellow := color.New(color.FgYellow, color.Bold)
	cyan := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	fmt.Fprintln(p.writer)
	yellow.Fprintln(p.writer, "⚠  Tool Permission Request")
	dim.Fprintln(p.writer, strings.Repeat("─", 50))
	fmt.Fprintf(p.writer, "Tool: %s\n", cyan.Sprint(req.ToolName))
	fmt.Fprintf(p.writer, "Description: %s\n", dim.Sprint(req.ToolDescription))

	if diff, path, ok := diffInput(req.Input); ok {
		if path != "" {
			fmt.Fprintf(p.writer, "Target file: %s\n", yellow.Sprint(path))
		}
		fmt.Fprintln(p.writer, "\nProposed changes:")
		dim.Fprintln(p.writer, strings.Repeat("─", 50))
		fmt.Fprint(p.writer, formatDiff(diff))
		dim.Fprintln(p.writer, strings.Repeat("─", 50))
	} else {
		fmt.Fprintf(p.writer, "Input: %s\n", dim.Sprint(prettyInput(req.Input)))
	}

	fmt.Fprintln(p.writer)
	fmt.Fprintln(p.writer, "  1) Yes (always allow this tool)")
	fmt.Fprintln(p.writer, "  2) Yes (just this once)")
	fmt.Fprintln(p.writer, "  3) No (never allow this tool)")
	fmt.Fprintln(p.writer, "  4) No (just this once)")
}

// diffInput detects diff-shaped inputs: an object carrying a "diff" string,
// optionally with a "path".
func diffInput(input json.RawMessage) (diff, path string, ok bool) {
	var fields struct {
		Path string `json:"path"`
		Diff string `json:"diff"`
	}
	if err := json.Unmarshal(input, &fields); err != nil || fields.Diff == "" {
		return "", "", false
	}
	return fields.Diff, fields.Path, true
}

func formatDiff(diff string) string {
	var b strings.Builder
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			b.WriteString(color.New(color.FgBlue).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			b.WriteString(color.New(color.FgCyan).Sprint(line))
		case strings.HasPrefix(line, "+"):
			b.WriteString(color.New(color.FgGreen).Sprint(line))
		case strings.HasPrefix(line, "-"):
			b.WriteString(color.New(color.FgRed).Sprint(line))
		default:
			b.WriteString(color.New(color.Faint).Sprint(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func prettyInput(input json.RawMessage) string {
	if len(input) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, input, "", "  "); err != nil {
		return string(input)
	}
	return buf.String()
}
