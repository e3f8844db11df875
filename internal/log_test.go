package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"info", LogLevelInfo, true},
		{"WARN", LogLevelWarn, true},
		{" debug ", LogLevelDebug, true},
		{"verbose", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLogLevel(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromZap(zap.New(core), LogLevelWarn)

	logger.Info("hidden %d", 1)
	logger.Warn("Run %s did not complete.", "x")
	logger.Error("boom")

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, "Run x did not complete.", entries[0].Message)
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	}
}
