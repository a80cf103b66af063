package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewWritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := New(Options{Level: "info", File: file})
	require.NoError(t, err)

	log.Info("ledger ready")
	_ = log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ledger ready")
}
