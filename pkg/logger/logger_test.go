package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(" info "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(""))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("nonsense"))
}

func TestNew_WritesJSONToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.log")

	log, err := New(config.LoggingConfig{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Info("cache loaded", zap.Int("entries", 3))
	log.Debug("filtered out")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cache loaded"`)
	assert.Contains(t, string(data), `"entries":3`)
	assert.NotContains(t, string(data), "filtered out")
}
