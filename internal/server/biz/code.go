package biz

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/eko/gocache/lib/v4/store"
	"github.com/redis/go-redis/v9"

	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/pkg/xcache"
)

// CodeConfig configures verification code issuance.
type CodeConfig struct {
	Length int           `conf:"length" yaml:"length" json:"length"`
	TTL    time.Duration `conf:"ttl" yaml:"ttl" json:"ttl"`
}

func (c CodeConfig) withDefaults() CodeConfig {
	if c.Length == 0 {
		c.Length = 6
	}

	if c.TTL == 0 {
		c.TTL = 5 * time.Minute
	}

	return c
}

// CodeSender delivers a code out of band (SMS gateway, SMTP relay).
type CodeSender interface {
	Send(ctx context.Context, destination, code string) error
}

// VerificationCodeService issues and checks short-lived numeric codes for
// SMS and email logins. Codes live in redis so every instance sees them,
// and a code is consumed on first successful verification.
type VerificationCodeService struct {
	cfg   CodeConfig
	codes xcache.Cache[string]
}

func NewVerificationCodeService(cfg CodeConfig, client *redis.Client) *VerificationCodeService {
	cfg = cfg.withDefaults()

	return &VerificationCodeService{
		cfg:   cfg,
		codes: xcache.NewRedis[string](client, store.WithExpiration(cfg.TTL)),
	}
}

func (s *VerificationCodeService) key(channel, tenantID, destination string) string {
	return fmt.Sprintf("login_code:%s:%s:%s", channel, tenantID, destination)
}

// Issue generates a code, stores it, and hands it to the sender.
func (s *VerificationCodeService) Issue(ctx context.Context, channel, tenantID, destination string, sender CodeSender) (string, error) {
	code, err := s.generate()
	if err != nil {
		return "", err
	}

	key := s.key(channel, tenantID, destination)

	if err := s.codes.Set(ctx, key, code, store.WithExpiration(s.cfg.TTL)); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}

	if sender != nil {
		if err := sender.Send(ctx, destination, code); err != nil {
			return "", fmt.Errorf("failed to send verification code: %w", err)
		}
	}

	log.Debug(ctx, "verification code issued",
		log.String("channel", channel),
		log.String("destination", destination),
	)

	return code, nil
}

// Verify checks a code and consumes it when it matches. A missing or
// mismatched code reports ErrInvalidCode.
func (s *VerificationCodeService) Verify(ctx context.Context, channel, tenantID, destination, code string) error {
	key := s.key(channel, tenantID, destination)

	stored, err := s.codes.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("%s %s: %w", channel, destination, ErrInvalidCode)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return fmt.Errorf("%s %s: %w", channel, destination, ErrInvalidCode)
	}

	if err := s.codes.Delete(ctx, key); err != nil {
		log.Warn(ctx, "failed to consume verification code", log.Cause(err))
	}

	return nil
}

func (s *VerificationCodeService) generate() (string, error) {
	digits := make([]byte, s.cfg.Length)

	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}

		digits[i] = byte('0' + n.Int64())
	}

	return string(digits), nil
}
