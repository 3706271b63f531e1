package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dimas/aruna/internal/config"
	"github.com/dimas/aruna/pkg/tool"
	"github.com/dimas/aruna/pkg/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the built-in tools",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	registry := tool.NewRegistry()
	opts := tools.Options{
		WorkspaceRoot: cfg.WorkspaceRoot,
		TodoPath:      cfg.Tools.TodoPath,
	}
	if cfg.Tools.MemoryEnabled {
		opts.MemoryDBPath = cfg.Tools.MemoryDBPath
	}
	if err := tools.RegisterAll(registry, opts); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	cyan := color.New(color.FgCyan)
	for _, name := range registry.Names() {
		t := registry.Get(name)
		if t == nil {
			continue
		}
		desc := t.Description()
		if i := strings.IndexByte(desc, '.'); i >= 0 {
			desc = desc[:i+1]
		}
		fmt.Printf("%-16s %s\n", cyan.Sprint(name), desc)
	}
	return nil
}
