package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTraceID(t *testing.T) {
	id := GenerateTraceID()
	assert.True(t, strings.HasPrefix(id, "ry-"))
	assert.NotEqual(t, id, GenerateTraceID())
}

func TestTraceFieldsHooks(t *testing.T) {
	t.Run("with trace ID", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "ry-test-trace-id")
		fields := TraceFieldsHooks(ctx, "test message")
		require.Len(t, fields, 1)
		assert.Equal(t, "trace_id", fields[0].Key)
		assert.Equal(t, "ry-test-trace-id", fields[0].String)
	})

	t.Run("with operation name", func(t *testing.T) {
		ctx := WithOperationName(context.Background(), "login")
		fields := TraceFieldsHooks(ctx, "test message")
		require.Len(t, fields, 1)
		assert.Equal(t, "operation_name", fields[0].Key)
		assert.Equal(t, "login", fields[0].String)
	})

	t.Run("without trace ID", func(t *testing.T) {
		fields := TraceFieldsHooks(context.Background(), "test message")
		assert.Len(t, fields, 0)
	})

	t.Run("nil context", func(t *testing.T) {
		fields := TraceFieldsHooks(nil, "test message")
		assert.Len(t, fields, 0)
	})
}
