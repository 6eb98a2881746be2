package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zhenzou/executors"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/server/biz"
	"github.com/lyfdddd/ryadmin/internal/server/db"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

func newWorkerForTest(t *testing.T) (*Worker, *biz.TenantService) {
	t.Helper()

	gdb := db.NewDB(db.Config{
		Dialect: "sqlite",
		DSN:     "file:" + t.Name() + "?mode=memory&cache=shared",
	}, tenant.Config{Enabled: true})

	tenants := biz.NewTenantService(biz.TenantServiceParams{
		DB:           gdb,
		TenantConfig: tenant.Config{Enabled: true},
	})

	executor := executors.NewPoolScheduleExecutor(executors.WithMaxConcurrent(1))
	t.Cleanup(func() {
		_ = executor.Shutdown(context.Background())
	})

	worker := NewWorker(Params{
		Config:   Config{CRON: "0 0 2 * * *", Enabled: true},
		Tenants:  tenants,
		Executor: executor,
	})
	t.Cleanup(func() {
		_ = worker.Stop(context.Background())
	})

	return worker, tenants
}

func seedTenant(t *testing.T, tenants *biz.TenantService, id string, expireAt *time.Time) {
	t.Helper()

	ctx := authz.NewSystemContext(context.Background())
	require.NoError(t, tenants.CreateTenant(ctx, &model.Tenant{
		TenantID:    id,
		CompanyName: "co-" + id,
		Status:      model.StatusEnabled,
		ExpireAt:    expireAt,
	}))
}

func TestRunSweepDisablesExpiredTenants(t *testing.T) {
	worker, tenants := newWorkerForTest(t)
	ctx := authz.NewSystemContext(context.Background())

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	seedTenant(t, tenants, "100001", &past)
	seedTenant(t, tenants, "100002", &future)
	seedTenant(t, tenants, "100003", nil)

	worker.RunSweep(ctx)

	expired, err := tenants.GetByTenantID(ctx, "100001")
	require.NoError(t, err)
	require.Equal(t, model.StatusDisabled, expired.Status)

	for _, id := range []string{"100002", "100003"} {
		alive, err := tenants.GetByTenantID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, model.StatusEnabled, alive.Status)
	}
}

func TestRunSweepSparesDefaultTenant(t *testing.T) {
	worker, tenants := newWorkerForTest(t)
	ctx := authz.NewSystemContext(context.Background())

	past := time.Now().Add(-time.Hour)
	seedTenant(t, tenants, model.DefaultTenantID, &past)

	worker.RunSweep(ctx)

	def, err := tenants.GetByTenantID(ctx, model.DefaultTenantID)
	require.NoError(t, err)
	require.Equal(t, model.StatusEnabled, def.Status)
}
