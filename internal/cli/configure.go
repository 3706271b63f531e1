package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dimas/aruna/internal/config"
)

var (
	confProvider string
	confModel    string
	confAPIKey   string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write the configuration file",
	Long: `Write the configuration file, starting from the current
configuration (or the defaults when none exists) and applying any
provided flags. API keys can also be supplied through the
ANTHROPIC_API_KEY or OPENAI_API_KEY environment variables instead.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().StringVar(&confProvider, "provider", "", "model provider (anthropic or openai)")
	configureCmd.Flags().StringVar(&confModel, "model", "", "model id")
	configureCmd.Flags().StringVar(&confAPIKey, "api-key", "", "API key stored in the config file")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		// A broken existing file should not block reconfiguration.
		cfg = config.DefaultConfig()
	}

	if confProvider != "" {
		cfg.Provider = confProvider
	}
	if confModel != "" {
		cfg.Model = confModel
	}
	if confAPIKey != "" {
		cfg.APIKey = confAPIKey
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("Configuration saved to: %s\n", loader.GetConfigPath())
	fmt.Println("Start a session with: aruna chat")

	return nil
}
