package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func TestWithContext(t *testing.T) {
	logger, err := NewForEnvironment("development")
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_NotFound(t *testing.T) {
	// Should return a no-op logger rather than nil
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestWithRequestID(t *testing.T) {
	logger := zap.NewNop()

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	assert.NotNil(t, enriched)
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))
}

func TestWithTenantID(t *testing.T) {
	logger := zap.NewNop()

	ctx, enriched := WithTenantID(context.Background(), logger, "tenant-456")

	assert.NotNil(t, enriched)
	assert.Equal(t, "tenant-456", GetTenantID(ctx))
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetTenantID_NotFound(t *testing.T) {
	assert.Empty(t, GetTenantID(context.Background()))
}

func TestWithTraceContext_NoSpan(t *testing.T) {
	logger := zap.NewNop()

	// No span in context: logger passes through unchanged
	result := WithTraceContext(context.Background(), logger)
	assert.Same(t, logger, result)
}

func TestWithTraceContext_NoopSpan(t *testing.T) {
	logger := zap.NewNop()

	tracer := noop.NewTracerProvider().Tracer("test")
	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	// Noop spans have invalid span contexts, so no fields are added
	result := WithTraceContext(ctx, logger)
	assert.Same(t, logger, result)
}
