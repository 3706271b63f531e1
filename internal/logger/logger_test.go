package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")

		logger, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		zl := logger.GetZerolog()
		zl.Info().Str("component", "test").Msg("test message")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "test message")
		assert.Contains(t, string(data), `"component":"test"`)
	})

	t.Run("no outputs discards", func(t *testing.T) {
		logger, err := New(Config{Level: "info"})
		require.NoError(t, err)
		defer logger.Close()

		zl := logger.GetZerolog()
		zl.Info().Msg("goes nowhere")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")
		logger, err := New(Config{Level: "loud", File: logFile})
		require.NoError(t, err)

		zl := logger.GetZerolog()
		zl.Debug().Msg("should be filtered")
		zl.Info().Msg("should appear")
		require.NoError(t, logger.Close())

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "should be filtered")
		assert.Contains(t, string(data), "should appear")
	})
}

func TestRedactionInLogOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{Level: "info", File: logFile, Redaction: true})
	require.NoError(t, err)

	zl := logger.GetZerolog()
	zl.Info().Str("key", "sk-ant-REDACTED").Msg("configured")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-ant-REDACTED")
	assert.Contains(t, string(data), "[REDACTED]")
}

func TestLoggerWith(t *testing.T) {
	logger, err := New(Config{Level: "info"})
	require.NoError(t, err)
	defer logger.Close()

	child := logger.With().Str("component", "chat").Logger()
	child.Info().Msg("hello")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.Console)
	assert.True(t, cfg.Redaction)
	assert.True(t, strings.HasSuffix(cfg.File, filepath.Join(".aruna", "aruna.log")))
}
