package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "portfolio/internal/core/context"
	"portfolio/internal/core/security"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestInfo_EnrichesWithTraceAndActor(t *testing.T) {
	l, logs := observed()
	trace := appctx.Trace{TraceID: "t-1", RequestID: "r-1", Origin: appctx.OriginWorker}

	ctx := WithLogger(context.Background(), l)
	ctx = appctx.WithTrace(ctx, trace)
	ctx = security.WithUserID(ctx, "user-1")

	Info(ctx, "record soft-deleted", "entity_type", "project")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "worker", fields["origin"])
	assert.Equal(t, "user-1", fields["actor_id"])
	assert.Equal(t, "project", fields["entity_type"])
}

func TestWithContext_FallsBackToUserContext(t *testing.T) {
	l, logs := observed()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "admin"})

	l.WithContext(ctx).Warnw("purge refused")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "admin", logs.All()[0].ContextMap()["actor_id"])
}

func TestWithContext_EmptyContextKeepsLogger(t *testing.T) {
	l, _ := observed()
	assert.Same(t, l, l.WithContext(context.Background()))
}

func TestNew_UnknownLevelMeansInfo(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
}
