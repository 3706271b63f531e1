// Package config holds the persisted user configuration: which provider
// and model to chat with, generation settings, tool paths, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the main aruna configuration
type Config struct {
	// Provider selects the model provider: anthropic or openai.
	Provider string `json:"provider" mapstructure:"provider"`

	// Model is the model id sent with every request.
	Model string `json:"model" mapstructure:"model"`

	// APIKey overrides the provider environment variable.
	APIKey string `json:"api_key,omitempty" mapstructure:"api_key"`

	// SystemPrompt is prepended to every conversation.
	SystemPrompt string `json:"system_prompt,omitempty" mapstructure:"system_prompt"`

	// MaxTokens caps each model response.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`

	// Temperature, when set, is passed through to the provider.
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`

	// MaxIterations bounds the tool rounds within a single turn.
	MaxIterations int `json:"max_iterations" mapstructure:"max_iterations"`

	// MaxResultLength truncates tool results before they re-enter the
	// conversation. Zero disables truncation.
	MaxResultLength int `json:"max_result_length" mapstructure:"max_result_length"`

	// DataDir holds conversations, the memory database, and logs.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// WorkspaceRoot confines the filesystem tools.
	WorkspaceRoot string `json:"workspace_root" mapstructure:"workspace_root"`

	// Tools configuration
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`
}

// ToolsConfig holds per-tool settings
type ToolsConfig struct {
	TodoPath     string `json:"todo_path" mapstructure:"todo_path"`
	MemoryDBPath string `json:"memory_db_path" mapstructure:"memory_db_path"`
	// MemoryEnabled gates the SQLite-backed memory tools.
	MemoryEnabled bool `json:"memory_enabled" mapstructure:"memory_enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Provider:        "anthropic",
		Model:           "claude-sonnet-4-20250514",
		MaxTokens:       4096,
		MaxIterations:   100,
		MaxResultLength: 10000,
		Tools: ToolsConfig{
			MemoryEnabled: true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("unknown provider %q (expected anthropic or openai)", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 1) {
		return fmt.Errorf("temperature must be between 0 and 1")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.MaxResultLength < 0 {
		return fmt.Errorf("max_result_length cannot be negative")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// ResolveAPIKey returns the configured key or falls back to the provider's
// conventional environment variable.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}

	envVar := "ANTHROPIC_API_KEY"
	if c.Provider == "openai" {
		envVar = "OPENAI_API_KEY"
	}
	if key := os.Getenv(envVar); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no API key configured: set api_key or the %s environment variable", envVar)
}

// ConversationsDir returns where saved conversations live.
func (c *Config) ConversationsDir() string {
	return filepath.Join(c.DataDir, "conversations")
}
