// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/pinpoint-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// bufferSyncer adapts a bytes.Buffer into a zapcore.WriteSyncer so tests can
// inspect console output without touching stdout.
type bufferSyncer struct {
	bytes.Buffer
}

func (b *bufferSyncer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes the level", func(t *testing.T) {
		ResetForTest()
		var buf bufferSyncer

		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "pinpoint-test",
			Colors:      config.ColorConfig{Info: "green"},
		}
		Initialize(cfg, &buf)
		GetLogger().Info("console message")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "console message")
		assert.Contains(t, output, colorGreen)
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "pinpoint-test.")
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		ResetForTest()
		var buf bufferSyncer

		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "pinpoint-test",
		}
		Initialize(cfg, &buf)
		GetLogger().Warn("structured message", zap.String("key", "value"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be valid JSON")
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "pinpoint-test", entry["logger"])
		assert.Equal(t, "structured message", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("debug entries are dropped at info level", func(t *testing.T) {
		ResetForTest()
		var buf bufferSyncer

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, &buf)
		GetLogger().Debug("should not appear")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		var buf bufferSyncer

		Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, &buf)
		GetLogger().Debug("suppressed")
		GetLogger().Info("visible")

		assert.NotContains(t, buf.String(), "suppressed")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("writes a rotating log file when configured", func(t *testing.T) {
		ResetForTest()
		var buf bufferSyncer
		logPath := filepath.Join(t.TempDir(), "pinpoint.log")

		cfg := config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logPath,
			MaxSize: 1,
		}
		Initialize(cfg, &buf)
		GetLogger().Info("file-bound message", zap.Int("n", 7))
		Sync()

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)

		// The file core always writes JSON regardless of console format.
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, "file-bound message", entry["msg"])
		assert.EqualValues(t, 7, entry["n"])
	})

	t.Run("initialization happens exactly once", func(t *testing.T) {
		ResetForTest()
		var first, second bufferSyncer

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, &first)
		Initialize(config.LoggerConfig{Level: "debug", Format: "json"}, &second)
		GetLogger().Info("routed to the first writer")

		assert.Contains(t, first.String(), "routed to the first writer")
		assert.Empty(t, second.String())
	})
}

func TestGetLogger_FallbackBeforeInitialization(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger, "an uninitialized logger must still be usable")
}

var _ zapcore.WriteSyncer = (*bufferSyncer)(nil)
