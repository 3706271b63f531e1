package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dimas/aruna/internal/config"
	"github.com/dimas/aruna/internal/logger"
	"github.com/dimas/aruna/internal/observability"
	"github.com/dimas/aruna/pkg/chat"
	"github.com/dimas/aruna/pkg/permission"
	"github.com/dimas/aruna/pkg/provider"
	"github.com/dimas/aruna/pkg/state"
	"github.com/dimas/aruna/pkg/tool"
	"github.com/dimas/aruna/pkg/tools"
)

var (
	chatModel    string
	chatResume   string
	chatAllowAll bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session with the configured model.
The model may request tool calls; each one is checked against your
permission choices before it runs. Type /help inside the session for
the list of session commands.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatModel, "model", "", "override the configured model for this session")
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "resume a saved conversation by name")
	chatCmd.Flags().BoolVar(&chatAllowAll, "allow-all", false, "skip permission prompts and allow every tool call")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   cfg.Logging.Console,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer lg.Close()

	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return err
	}

	transport, err := provider.New(cfg.Provider, apiKey)
	if err != nil {
		return err
	}

	mem := permission.NewMemory(permission.NewTerminalPrompter(os.Stdin, os.Stdout))
	var handler permission.Handler = mem
	if chatAllowAll {
		handler = permission.AllowAll{}
	}

	registry := tool.NewRegistryWithHandler(handler)
	toolOpts := tools.Options{
		WorkspaceRoot: cfg.WorkspaceRoot,
		TodoPath:      cfg.Tools.TodoPath,
	}
	if cfg.Tools.MemoryEnabled {
		toolOpts.MemoryDBPath = cfg.Tools.MemoryDBPath
	}
	if err := tools.RegisterAll(registry, toolOpts); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	model := cfg.Model
	if chatModel != "" {
		model = chatModel
	}

	orch := chat.New(transport, registry, chat.Options{
		Model:           model,
		System:          cfg.SystemPrompt,
		MaxTokens:       cfg.MaxTokens,
		Temperature:     cfg.Temperature,
		MaxIterations:   cfg.MaxIterations,
		MaxResultLength: cfg.MaxResultLength,
		Logger:          lg.GetZerolog(),
	})

	store, err := state.NewStore(cfg.ConversationsDir())
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}

	if err := observability.InitAuditLogger(filepath.Join(cfg.DataDir, "audit.log")); err != nil {
		log.Warn().Err(err).Msg("audit log unavailable")
	}
	defer observability.GetAuditLogger().Close()

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.MetricsHandler())
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics endpoint stopped")
			}
		}()
	}

	s := &session{
		orch:     orch,
		registry: registry,
		store:    store,
		mem:      mem,
		cfg:      cfg,
		in:       os.Stdin,
		out:      os.Stdout,
	}

	if chatResume != "" {
		conv, err := store.Load(chatResume)
		if err != nil {
			return err
		}
		s.restore(chatResume, conv)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return s.run(ctx)
}
