package biz

import (
	"context"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/pkg/xcache"
	"github.com/lyfdddd/ryadmin/internal/server/db"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"

	return db.NewDB(
		db.Config{Dialect: "sqlite", DSN: dsn},
		tenant.Config{Enabled: true},
	)
}

func newUserServiceForTest(gdb *gorm.DB) *UserService {
	return NewUserService(UserServiceParams{
		CacheConfig: xcache.Config{Mode: xcache.ModeMemory},
		DB:          gdb,
	})
}

func newDeptServiceForTest(gdb *gorm.DB) *DeptService {
	return NewDeptService(DeptServiceParams{
		DB:          gdb,
		UserService: newUserServiceForTest(gdb),
		ScopeCache:  NewDataScopeCache(),
	})
}

// recordingAuditSink captures audit events for assertions.
type recordingAuditSink struct {
	mu     sync.Mutex
	events []auditEvent
}

type auditEvent struct {
	TenantID     string
	PrincipalKey string
	Outcome      string
	Message      string
}

func (s *recordingAuditSink) Record(ctx context.Context, tenantID, principalKey, outcome, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, auditEvent{
		TenantID:     tenantID,
		PrincipalKey: principalKey,
		Outcome:      outcome,
		Message:      message,
	})
}

func (s *recordingAuditSink) Events() []auditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]auditEvent(nil), s.events...)
}
