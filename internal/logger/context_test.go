package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal checks the global logger is returned for bare contexts.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestContextHelpers verifies names and fields propagate to emitted entries.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "sequencer")
	ctx = WithKV(ctx, "run_id", "abc")
	ctx = WithFields(ctx, "phase", 1)

	InfoKV(ctx, "Phase applied", "cycle", 2)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "sequencer", entries[0].LoggerName)
	require.Equal(t, "Phase applied", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "abc", fields["run_id"])
	require.EqualValues(t, 1, fields["phase"])
	require.EqualValues(t, 2, fields["cycle"])
}
