package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(core, "pickup-api")

	l.Info("pickup scheduled", "container_id", "c1", "dates", 3)
	l.Debug("dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "pickup scheduled", entries[0].Message)
	require.Equal(t, "pickup-api", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	require.Equal(t, "c1", fields["container_id"])
	require.EqualValues(t, 3, fields["dates"])
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	flush, err := Setup("pickup-worker", "debug", "console")
	require.NoError(t, err)
	flush()

	_, err = Setup("pickup-worker", "loud", "json")
	require.Error(t, err)
}
