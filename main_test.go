package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	cases := []struct {
		name    string
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{name: "Debug", level: "debug", enabled: slog.LevelDebug, muted: slog.LevelDebug - 1},
		{name: "Warn", level: "warn", enabled: slog.LevelWarn, muted: slog.LevelInfo},
		{name: "Error in capitals", level: "ERROR", enabled: slog.LevelError, muted: slog.LevelWarn},
		{name: "Unknown falls back to info", level: "loud", enabled: slog.LevelInfo, muted: slog.LevelDebug},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger := newLogger(tc.level)

			assert.True(t, logger.Enabled(context.Background(), tc.enabled))
			assert.False(t, logger.Enabled(context.Background(), tc.muted))
		})
	}
}
