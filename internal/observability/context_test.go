package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerContext(t *testing.T) {
	logger := zap.NewExample()
	require.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))

	require.Same(t, nop, FromContext(context.Background()))
	require.Same(t, nop, FromContext(WithLogger(context.Background(), nil)))
	//nolint:staticcheck // nil context is tolerated.
	require.Same(t, nop, FromContext(nil))
}

func TestWithFieldsAddsToRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := WithLogger(context.Background(), zap.New(core))

	ctx = WithFields(ctx, zap.String("view_id", "01J"))
	FromContext(ctx).Info("event applied")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "01J", entries[0].ContextMap()["view_id"])
}
