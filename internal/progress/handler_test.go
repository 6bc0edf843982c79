package progress

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	newLogger := func(level slog.Level) (*slog.Logger, *bytes.Buffer) {
		var buf bytes.Buffer
		return slog.New(NewPrettyHandler(&buf, level)), &buf
	}

	t.Run("levels", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name     string
			handler  slog.Level
			level    slog.Level
			wantLine bool
		}{
			{name: "info at info", handler: slog.LevelInfo, level: slog.LevelInfo, wantLine: true},
			{name: "debug filtered at info", handler: slog.LevelInfo, level: slog.LevelDebug},
			{name: "debug at debug", handler: slog.LevelDebug, level: slog.LevelDebug, wantLine: true},
			{name: "warn at info", handler: slog.LevelInfo, level: slog.LevelWarn, wantLine: true},
			{name: "error at warn", handler: slog.LevelWarn, level: slog.LevelError, wantLine: true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				logger, buf := newLogger(tt.handler)
				logger.Log(context.Background(), tt.level, "message")
				if !tt.wantLine {
					assert.Empty(t, buf.String())
					return
				}
				assert.Contains(t, buf.String(), "message")
				assert.Contains(t, buf.String(), "\n")
			})
		}
	})

	t.Run("inline attributes hidden at info", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(slog.LevelInfo)
		logger.Info("msg only", slog.String("file", "scene.dae"), slog.Int("ids", 42)) //nolint:sloglint // inline attrs are hidden
		assert.Contains(t, buf.String(), "msg only")
		assert.NotContains(t, buf.String(), "file=")
		assert.NotContains(t, buf.String(), "42")
	})

	t.Run("inline attributes shown at debug", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(slog.LevelDebug)
		logger.Debug("skipping element", slog.String("element", "vendor_data")) //nolint:sloglint // inline attrs at debug
		assert.Contains(t, buf.String(), "skipping element")
		assert.Contains(t, buf.String(), "element=vendor_data")
	})

	t.Run("duration rendered", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(slog.LevelInfo)
		logger.LogAttrs(context.Background(), slog.LevelInfo, "[a.dae] valid", slog.Duration("duration", 1500*time.Millisecond))
		assert.Contains(t, buf.String(), "[a.dae] valid")
		assert.Contains(t, buf.String(), "1.5s")
	})

	t.Run("Enabled respects level", func(t *testing.T) {
		t.Parallel()

		h := NewPrettyHandler(&bytes.Buffer{}, slog.LevelWarn)
		assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
		assert.True(t, h.Enabled(context.Background(), slog.LevelError))
	})

	t.Run("WithAttrs prefixes message", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(slog.LevelInfo)
		logger.With(slog.String("file", "robot.dae")).Info("parsed") //nolint:sloglint // WithAttrs propagation
		assert.Contains(t, buf.String(), "file=robot.dae parsed")
	})

	t.Run("WithGroup prefixes message", func(t *testing.T) {
		t.Parallel()

		logger, buf := newLogger(slog.LevelInfo)
		logger.WithGroup("cache").Info("hit")
		assert.Contains(t, buf.String(), "cache.hit")
	})

	t.Run("empty WithAttrs and WithGroup are identity", func(t *testing.T) {
		t.Parallel()

		h := NewPrettyHandler(&bytes.Buffer{}, slog.LevelInfo)
		assert.Same(t, h, h.WithAttrs(nil))
		assert.Same(t, h, h.WithGroup(""))
	})
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		level  slog.Level
	}{
		{name: "pretty", format: FormatPretty, level: slog.LevelInfo},
		{name: "json", format: FormatJSON, level: slog.LevelDebug},
		{name: "text", format: FormatText, level: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := NewLogger(&buf, tt.format, tt.level)
			require.NoError(t, err)
			require.NotNil(t, logger)

			logger.Log(context.Background(), tt.level, "test message")
			assert.Contains(t, buf.String(), "test message")
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		logger, err := NewLogger(&bytes.Buffer{}, "yaml", slog.LevelInfo)
		require.ErrorIs(t, err, ErrUnknownFormat)
		require.Nil(t, logger)
	})
}
