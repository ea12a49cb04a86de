package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Format(t *testing.T) {
	assert.NoError(t, Config{Format: "json"}.Validate())
	assert.NoError(t, Config{Format: "console"}.Validate())
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Format: "xml"}.Validate())
}

func TestNew(t *testing.T) {
	logger, err := New(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("hello")

	_, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_ConsoleFormat(t *testing.T) {
	logger, err := New(Config{Format: "console", Level: zapcore.DebugLevel})
	require.NoError(t, err)
	logger.Debug("debug line")
}
