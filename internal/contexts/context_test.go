package contexts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyfdddd/ryadmin/internal/model"
)

func TestUserContext(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		user, ok := GetUser(context.Background())
		assert.False(t, ok)
		assert.Nil(t, user)
	})

	t.Run("round trip", func(t *testing.T) {
		u := &model.User{Username: "admin"}
		ctx := WithUser(context.Background(), u)

		got, ok := GetUser(ctx)
		require.True(t, ok)
		assert.Equal(t, "admin", got.Username)
	})
}

func TestTraceIDContext(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		_, ok := GetTraceID(context.Background())
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "ry-trace-1")
		got, ok := GetTraceID(ctx)
		require.True(t, ok)
		assert.Equal(t, "ry-trace-1", got)
	})
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	got, ok := GetRequestID(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-1", got)
}

func TestOperationNameContext(t *testing.T) {
	ctx := WithOperationName(context.Background(), "login")
	got, ok := GetOperationName(ctx)
	require.True(t, ok)
	assert.Equal(t, "login", got)
}

func TestClientIPContext(t *testing.T) {
	ctx := WithClientIP(context.Background(), "10.0.0.1")
	got, ok := GetClientIP(ctx)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", got)
}

func TestContainerSharedAcrossValues(t *testing.T) {
	// Values set on a derived context share one container per unit of work.
	ctx := WithTraceID(context.Background(), "ry-trace-1")
	ctx = WithOperationName(ctx, "login")
	ctx = WithUser(ctx, &model.User{Username: "admin"})

	trace, ok := GetTraceID(ctx)
	require.True(t, ok)
	assert.Equal(t, "ry-trace-1", trace)

	op, ok := GetOperationName(ctx)
	require.True(t, ok)
	assert.Equal(t, "login", op)

	user, ok := GetUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", user.Username)
}
