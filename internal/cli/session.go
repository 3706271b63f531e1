package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/dimas/aruna/internal/config"
	"github.com/dimas/aruna/pkg/chat"
	"github.com/dimas/aruna/pkg/permission"
	"github.com/dimas/aruna/pkg/state"
	"github.com/dimas/aruna/pkg/tool"
)

// session is one interactive chat REPL bound to an orchestrator.
type session struct {
	orch     *chat.Orchestrator
	registry *tool.Registry
	store    *state.Store
	mem      *permission.Memory
	cfg      *config.Config
	in       io.Reader
	out      io.Writer

	// name is the conversation the session was last saved to or loaded
	// from. /save without an argument reuses it.
	name string
}

func (s *session) run(ctx context.Context) error {
	cyan := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)

	cyan.Fprintf(s.out, "aruna %s\n", version)
	fmt.Fprintf(s.out, "Model: %s\n", s.orch.Model())
	dim.Fprintln(s.out, "Type /help for commands, exit to quit.")
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nGoodbye!")
			return nil
		default:
		}

		color.New(color.FgGreen, color.Bold).Fprint(s.out, "you> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			fmt.Fprintln(s.out, "\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if quit := s.command(line); quit {
				fmt.Fprintln(s.out, "Goodbye!")
				return nil
			}
			continue
		}

		s.turn(ctx, line)
	}
}

func (s *session) turn(ctx context.Context, text string) {
	turn, err := s.orch.RunTurn(ctx, text)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			color.New(color.FgYellow).Fprintln(s.out, "Interrupted.")
			return
		}
		color.New(color.FgRed).Fprintf(s.out, "error: %v\n", err)
		return
	}

	if turn.Text != "" {
		fmt.Fprintln(s.out, turn.Text)
	}
	if turn.Status == chat.StatusPaused {
		color.New(color.FgYellow).Fprintln(s.out, "Tool call denied; the assistant is paused. Send another message to continue.")
	}
	fmt.Fprintln(s.out)
}

// command handles a /slash command. It reports whether the session
// should end.
func (s *session) command(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/help":
		s.help()
	case "/save":
		s.save(args)
	case "/load":
		s.load(args)
	case "/list":
		s.list()
	case "/delete":
		s.deleteConversation(args)
	case "/model":
		s.model(args)
	case "/tools":
		s.tools()
	case "/stats":
		s.stats()
	case "/clear":
		s.orch.SetHistory(nil)
		s.registry.ClearHistory()
		fmt.Fprintln(s.out, "Conversation cleared.")
	case "/exit", "/quit":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %s. Type /help for the list.\n", cmd)
	}
	return false
}

func (s *session) help() {
	dim := color.New(color.Faint)
	fmt.Fprintln(s.out, "Commands:")
	for _, row := range [][2]string{
		{"/save [name]", "save the conversation (generates a name if omitted)"},
		{"/load <name>", "load a saved conversation"},
		{"/list", "list saved conversations"},
		{"/delete <name>", "delete a saved conversation"},
		{"/model [name]", "show or switch the model"},
		{"/tools", "list available tools"},
		{"/stats", "show tool execution counts"},
		{"/clear", "clear the conversation and execution history"},
		{"/exit", "leave the session"},
	} {
		fmt.Fprintf(s.out, "  %-16s %s\n", row[0], dim.Sprint(row[1]))
	}
}

func (s *session) save(args []string) {
	name := s.name
	if len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name = state.DefaultName()
	}

	conv := &state.Conversation{
		History:         s.orch.History(),
		Model:           s.orch.Model(),
		SystemPrompt:    s.cfg.SystemPrompt,
		MaxResultLength: s.cfg.MaxResultLength,
	}
	conv.CapturePermissions(s.mem)

	if err := s.store.Save(name, conv); err != nil {
		color.New(color.FgRed).Fprintf(s.out, "error: %v\n", err)
		return
	}
	s.name = name
	fmt.Fprintf(s.out, "Saved conversation %q (%d messages).\n", name, len(conv.History))
}

func (s *session) load(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: /load <name>")
		return
	}
	conv, err := s.store.Load(args[0])
	if err != nil {
		color.New(color.FgRed).Fprintf(s.out, "error: %v\n", err)
		return
	}
	s.restore(args[0], conv)
	fmt.Fprintf(s.out, "Loaded conversation %q (%d messages, model %s).\n", args[0], len(conv.History), s.orch.Model())
}

// restore applies a saved conversation to the live session.
func (s *session) restore(name string, conv *state.Conversation) {
	s.orch.SetHistory(conv.History)
	if conv.Model != "" {
		s.orch.SetModel(conv.Model)
	}
	conv.ApplyPermissions(s.mem)
	s.name = name
}

func (s *session) list() {
	names, err := s.store.List()
	if err != nil {
		color.New(color.FgRed).Fprintf(s.out, "error: %v\n", err)
		return
	}
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No saved conversations.")
		return
	}
	for _, n := range names {
		fmt.Fprintf(s.out, "  %s\n", n)
	}
}

func (s *session) deleteConversation(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: /delete <name>")
		return
	}
	if err := s.store.Delete(args[0]); err != nil {
		color.New(color.FgRed).Fprintf(s.out, "error: %v\n", err)
		return
	}
	if s.name == args[0] {
		s.name = ""
	}
	fmt.Fprintf(s.out, "Deleted conversation %q.\n", args[0])
}

func (s *session) model(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Model: %s\n", s.orch.Model())
		return
	}
	s.orch.SetModel(args[0])
	fmt.Fprintf(s.out, "Model set to %s.\n", args[0])
}

func (s *session) tools() {
	for _, name := range s.registry.Names() {
		t := s.registry.Get(name)
		if t == nil {
			continue
		}
		desc := t.Description()
		if i := strings.IndexByte(desc, '.'); i >= 0 {
			desc = desc[:i+1]
		}
		fmt.Fprintf(s.out, "  %-16s %s\n", name, desc)
	}
}

func (s *session) stats() {
	counts := s.registry.Stats()
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(s.out, "  %-10s %d\n", k, counts[k])
	}
}
