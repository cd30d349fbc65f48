package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			// what cmd/migrate builds
			name: "console to stdout",
			cfg: &Config{
				Level:      "info",
				Format:     "console",
				Output:     "stdout",
				TimeFormat: "2006-01-02 15:04:05",
			},
		},
		{
			// what cmd/server builds in production
			name: "json to stdout",
			cfg: &Config{
				Level:      "info",
				Format:     "json",
				Output:     "stdout",
				TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			},
		},
		{
			name: "debug level",
			cfg: &Config{
				Level:      "debug",
				Format:     "console",
				Output:     "stderr",
				TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.NoError(t, func() error { log.Info("startup"); return nil }())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestNewSink(t *testing.T) {
	t.Run("standard streams", func(t *testing.T) {
		assert.NotNil(t, newSink("stdout"))
		assert.NotNil(t, newSink("stderr"))
		assert.NotNil(t, newSink("STDOUT"))
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "service.log")
		sink := newSink(path)
		require.NotNil(t, sink)

		_, err := sink.Write([]byte("entry\n"))
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "entry")
	})

	t.Run("unopenable path falls back to stdout", func(t *testing.T) {
		sink := newSink(filepath.Join(t.TempDir(), "missing", "nested", "service.log"))
		assert.NotNil(t, sink)
	})
}

func TestSync(t *testing.T) {
	log, err := New(DefaultConfig())
	require.NoError(t, err)

	// Sync on stdout may fail on some platforms; it must not panic
	_ = Sync(log)
}
