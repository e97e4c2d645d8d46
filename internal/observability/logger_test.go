// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/ghost/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuild(t *testing.T) {
	t.Run("console output is colorized", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "ghost",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(&buf))

		logger.Named("processor").Info("Executed WRITE_TEXT")
		require.NoError(t, logger.Sync())

		out := buf.String()
		assert.Contains(t, out, palette["green"]+"INFO"+colorReset)
		assert.Contains(t, out, "ghost.processor.")
		assert.Contains(t, out, "Executed WRITE_TEXT")
	})

	t.Run("json output is structured", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "ghost"}, zapcore.AddSync(&buf))
		logger.Warn("planner failed", zap.String("provider", "gemini"))
		require.NoError(t, logger.Sync())

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "ghost", entry["logger"])
		assert.Equal(t, "planner failed", entry["msg"])
		assert.Equal(t, "gemini", entry["provider"])
	})

	t.Run("level filters and bad level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Build(config.LoggerConfig{Level: "loud", Format: "json"}, zapcore.AddSync(&buf))
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("log file receives entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ghost.log")
		var console bytes.Buffer
		logger := Build(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&console))
		logger.Error("Core link error. System reset.")
		_ = logger.Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "Core link error. System reset.")
	})
}

func TestInitializeOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "First"}, zapcore.AddSync(&buf))
	first := GetLogger()
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "Second"}, zapcore.AddSync(&buf))

	assert.Same(t, first, GetLogger())
	GetLogger().Info("test")
	Sync()
	assert.Contains(t, buf.String(), "First")
	assert.NotContains(t, buf.String(), "Second")
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	assert.NotNil(t, GetLogger())
}
