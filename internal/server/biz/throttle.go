package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/pkg/xredis"
)

// ThrottleConfig configures the failed-login lockout.
type ThrottleConfig struct {
	// MaxAttempts is the number of consecutive failures that locks the
	// principal.
	MaxAttempts int `conf:"max_attempts" yaml:"max_attempts" json:"max_attempts"`

	// LockDuration is the lockout window. The failure counter expires
	// after this long, which is the only path back to clear besides a
	// successful login.
	LockDuration time.Duration `conf:"lock_duration" yaml:"lock_duration" json:"lock_duration"`
}

func (c ThrottleConfig) withDefaults() ThrottleConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}

	if c.LockDuration <= 0 {
		c.LockDuration = 10 * time.Minute
	}

	return c
}

// LoginThrottle counts consecutive credential failures per
// (tenant, principal key) and denies further attempts once the maximum is
// reached. The counter lives in the shared store, so all instances of the
// service enforce one lockout.
type LoginThrottle struct {
	counters xredis.CounterStore
	audit    AuditSink
	cfg      ThrottleConfig
}

func NewLoginThrottle(counters xredis.CounterStore, audit AuditSink, cfg ThrottleConfig) *LoginThrottle {
	return &LoginThrottle{
		counters: counters,
		audit:    audit,
		cfg:      cfg.withDefaults(),
	}
}

func (t *LoginThrottle) key(tenantID, principalKey string) string {
	return fmt.Sprintf("login_fail:%s:%s", tenantID, principalKey)
}

// BeforeCheck fails with RateLimitedError when the principal is already
// locked. It must run before the credential check.
func (t *LoginThrottle) BeforeCheck(ctx context.Context, tenantID, principalKey string) error {
	key := t.key(tenantID, principalKey)

	count, err := t.counters.Current(ctx, key)
	if err != nil {
		log.Error(ctx, "failed to read login failure counter", log.Cause(err))
		return ErrInternal
	}

	if int(count) < t.cfg.MaxAttempts {
		return nil
	}

	retryAfter, err := t.counters.TTL(ctx, key)
	if err != nil || retryAfter <= 0 {
		retryAfter = t.cfg.LockDuration
	}

	t.audit.Record(ctx, tenantID, principalKey, AuditOutcomeLocked,
		fmt.Sprintf("account locked for %s after %d failed attempts", t.cfg.LockDuration, t.cfg.MaxAttempts))

	return &RateLimitedError{RetryAfter: retryAfter}
}

// RecordResult must run after the credential check. A success clears the
// counter; a failure increments it atomically and refreshes its expiry,
// returning CredentialsWrongError with the attempts left, or
// RateLimitedError when this failure reaches the maximum.
func (t *LoginThrottle) RecordResult(ctx context.Context, tenantID, principalKey string, success bool) error {
	key := t.key(tenantID, principalKey)

	if success {
		if err := t.counters.Delete(ctx, key); err != nil {
			log.Error(ctx, "failed to clear login failure counter", log.Cause(err))
			return ErrInternal
		}

		return nil
	}

	count, err := t.counters.Increment(ctx, key, t.cfg.LockDuration)
	if err != nil {
		log.Error(ctx, "failed to record login failure", log.Cause(err))
		return ErrInternal
	}

	if int(count) >= t.cfg.MaxAttempts {
		t.audit.Record(ctx, tenantID, principalKey, AuditOutcomeLocked,
			fmt.Sprintf("account locked for %s after %d failed attempts", t.cfg.LockDuration, t.cfg.MaxAttempts))

		return &RateLimitedError{RetryAfter: t.cfg.LockDuration}
	}

	return &CredentialsWrongError{Remaining: t.cfg.MaxAttempts - int(count)}
}
