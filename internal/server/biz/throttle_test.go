package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyfdddd/ryadmin/internal/pkg/xredis"
)

func newThrottleForTest(t *testing.T, cfg ThrottleConfig) (*LoginThrottle, *miniredis.Miniredis, *recordingAuditSink) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	audit := &recordingAuditSink{}

	return NewLoginThrottle(xredis.NewCounterStore(client), audit, cfg), mr, audit
}

func TestLoginThrottle_FailuresCountDown(t *testing.T) {
	throttle, _, _ := newThrottleForTest(t, ThrottleConfig{MaxAttempts: 3, LockDuration: time.Minute})
	ctx := context.Background()

	err := throttle.RecordResult(ctx, "000000", "password:alice", false)

	var wrong *CredentialsWrongError

	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, 2, wrong.Remaining)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = throttle.RecordResult(ctx, "000000", "password:alice", false)
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, 1, wrong.Remaining)
}

func TestLoginThrottle_LocksAtMax(t *testing.T) {
	throttle, _, audit := newThrottleForTest(t, ThrottleConfig{MaxAttempts: 2, LockDuration: time.Minute})
	ctx := context.Background()

	require.NoError(t, throttle.BeforeCheck(ctx, "000000", "password:alice"))

	err := throttle.RecordResult(ctx, "000000", "password:alice", false)

	var wrong *CredentialsWrongError

	require.ErrorAs(t, err, &wrong)

	err = throttle.RecordResult(ctx, "000000", "password:alice", false)

	var limited *RateLimitedError

	require.ErrorAs(t, err, &limited)
	assert.Equal(t, time.Minute, limited.RetryAfter)

	// Locked out before the next credential check even runs.
	err = throttle.BeforeCheck(ctx, "000000", "password:alice")
	require.ErrorAs(t, err, &limited)
	assert.Greater(t, limited.RetryAfter, time.Duration(0))

	events := audit.Events()
	require.NotEmpty(t, events)
	assert.Equal(t, AuditOutcomeLocked, events[0].Outcome)
}

func TestLoginThrottle_SuccessClearsCounter(t *testing.T) {
	throttle, _, _ := newThrottleForTest(t, ThrottleConfig{MaxAttempts: 3, LockDuration: time.Minute})
	ctx := context.Background()

	_ = throttle.RecordResult(ctx, "000000", "password:alice", false)
	_ = throttle.RecordResult(ctx, "000000", "password:alice", false)

	require.NoError(t, throttle.RecordResult(ctx, "000000", "password:alice", true))

	// Counter starts over from a clean slate.
	err := throttle.RecordResult(ctx, "000000", "password:alice", false)

	var wrong *CredentialsWrongError

	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, 2, wrong.Remaining)
}

func TestLoginThrottle_LockExpires(t *testing.T) {
	throttle, mr, _ := newThrottleForTest(t, ThrottleConfig{MaxAttempts: 1, LockDuration: time.Minute})
	ctx := context.Background()

	err := throttle.RecordResult(ctx, "000000", "password:alice", false)

	var limited *RateLimitedError

	require.ErrorAs(t, err, &limited)
	require.Error(t, throttle.BeforeCheck(ctx, "000000", "password:alice"))

	mr.FastForward(2 * time.Minute)

	assert.NoError(t, throttle.BeforeCheck(ctx, "000000", "password:alice"))
}

func TestLoginThrottle_CountersAreScopedPerTenantAndPrincipal(t *testing.T) {
	throttle, _, _ := newThrottleForTest(t, ThrottleConfig{MaxAttempts: 1, LockDuration: time.Minute})
	ctx := context.Background()

	err := throttle.RecordResult(ctx, "000000", "password:alice", false)

	var limited *RateLimitedError

	require.ErrorAs(t, err, &limited)

	// Same username in another tenant and another principal in the same
	// tenant are both unaffected.
	assert.NoError(t, throttle.BeforeCheck(ctx, "100001", "password:alice"))
	assert.NoError(t, throttle.BeforeCheck(ctx, "000000", "password:bob"))
}

func TestLoginThrottle_RedisDownFailsClosed(t *testing.T) {
	throttle, mr, _ := newThrottleForTest(t, ThrottleConfig{MaxAttempts: 3, LockDuration: time.Minute})
	mr.Close()

	err := throttle.BeforeCheck(context.Background(), "000000", "password:alice")
	assert.True(t, errors.Is(err, ErrInternal))
}
