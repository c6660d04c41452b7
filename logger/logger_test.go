package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warn", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
	}

	for _, tc := range cases {
		level, err := ParseLogLevel(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, level)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(LoggerConfig{
		Level:      WARN,
		FilePath:   path,
		MaxSize:    1,
		MaxBackups: 1,
		Console:    false,
	})
	require.NoError(t, err)
	defer l.Close()

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(content), "debug line")
	assert.NotContains(t, string(content), "info line")
	assert.Contains(t, string(content), "warn line")
	assert.Contains(t, string(content), "error line")
}

func TestLoggerSetLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(LoggerConfig{
		Level:    ERROR,
		FilePath: path,
		MaxSize:  1,
		Console:  false,
	})
	require.NoError(t, err)
	defer l.Close()

	l.Info("before")
	l.SetLevel(INFO)
	l.Info("after")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "before")
	assert.Contains(t, string(content), "after")
}
