// Package tools provides the built-in tool set: filesystem access, shell
// execution, a calculator, scratchpad helpers, HTTP access, and long-term
// memory backed by SQLite.
package tools

import (
	"fmt"

	"github.com/dimas/aruna/pkg/tool"
)

// Options configures the built-in tools.
type Options struct {
	// WorkspaceRoot confines filesystem tools. Empty means the current
	// working directory.
	WorkspaceRoot string
	// TodoPath is the todo list file. Empty means "todos.json" under the
	// workspace root.
	TodoPath string
	// MemoryDBPath is the SQLite database for the memory tools. Empty
	// disables them.
	MemoryDBPath string
}

// RegisterAll registers every built-in tool on the registry.
func RegisterAll(registry *tool.Registry, opts Options) error {
	all := []tool.Tool{
		&Calculator{},
		&ReadFile{Root: opts.WorkspaceRoot},
		&ListDirectory{Root: opts.WorkspaceRoot},
		&PatchFile{Root: opts.WorkspaceRoot},
		&Bash{Dir: opts.WorkspaceRoot},
		&SystemInfo{},
		&Think{},
		NewTodo(opts.TodoPath),
		&HTTPFetch{},
		&Weather{},
	}

	if opts.MemoryDBPath != "" {
		store, err := NewMemoryStore(opts.MemoryDBPath)
		if err != nil {
			return fmt.Errorf("failed to open memory store: %w", err)
		}
		all = append(all,
			&MemorySave{store: store},
			&MemoryRecall{store: store},
			&MemoryDelete{store: store},
		)
	}

	for _, t := range all {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", t.Name(), err)
		}
	}
	return nil
}
