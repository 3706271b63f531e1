package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 100, cfg.MaxIterations)
}

func TestValidate(t *testing.T) {
	temp := func(v float64) *float64 { return &v }

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad provider", func(c *Config) { c.Provider = "mistral" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"temperature too high", func(c *Config) { c.Temperature = temp(1.5) }},
		{"negative max iterations", func(c *Config) { c.MaxIterations = -1 }},
		{"negative result length", func(c *Config) { c.MaxResultLength = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aruna.json")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "memories.db"), cfg.Tools.MemoryDBPath)
	assert.Equal(t, filepath.Join(cfg.DataDir, "aruna.log"), cfg.Logging.File)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aruna.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"provider": "openai",
		"model": "gpt-4o",
		"max_tokens": 2048,
		"data_dir": "`+dir+`"
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aruna.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"provider": "nope"}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aruna.json")
	loader := NewLoader(path)

	cfg := DefaultConfig()
	cfg.Model = "claude-opus-4-20250514"
	cfg.DataDir = filepath.Dir(path)
	require.NoError(t, loader.Save(cfg))

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-20250514", loaded.Model)
}

func TestResolveAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk-from-config"
	key, err := cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-config", key)

	cfg.APIKey = ""
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")
	key, err = cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", key)

	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err = cfg.ResolveAPIKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}
