package biz

import (
	"context"

	"github.com/lyfdddd/ryadmin/internal/contexts"
	"github.com/lyfdddd/ryadmin/internal/log"
)

// Audit outcomes recorded for login attempts.
const (
	AuditOutcomeSuccess = "success"
	AuditOutcomeFailure = "failure"
	AuditOutcomeLocked  = "locked"
)

// AuditSink receives login audit records. Recording is fire-and-forget:
// implementations must never fail the operation being audited.
type AuditSink interface {
	Record(ctx context.Context, tenantID, principalKey, outcome, message string)
}

// logAuditSink writes audit records through the structured logger.
type logAuditSink struct{}

func NewLogAuditSink() AuditSink {
	return logAuditSink{}
}

func (logAuditSink) Record(ctx context.Context, tenantID, principalKey, outcome, message string) {
	fields := []log.Field{
		log.String("tenant_id", tenantID),
		log.String("principal", principalKey),
		log.String("outcome", outcome),
		log.String("message", message),
	}

	if ip, ok := contexts.GetClientIP(ctx); ok {
		fields = append(fields, log.String("client_ip", ip))
	}

	log.Info(ctx, "login audit", fields...)
}
