package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestWithLevel verifies the override both raises and lowers the effective level.
func TestWithLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	verbose := base.WithOptions(WithLevel(zapcore.DebugLevel)).With(zap.String("component", "sequencer"))
	verbose.Debug("phase applied")

	quiet := base.WithOptions(WithLevel(zapcore.ErrorLevel))
	quiet.Info("cycle started")
	quiet.Error("halted")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "phase applied", entries[0].Message)
	require.Equal(t, "sequencer", entries[0].ContextMap()["component"])
	require.Equal(t, "halted", entries[1].Message)
}
