package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

func newTestDB(t *testing.T, enabled bool) *gorm.DB {
	t.Helper()

	gdb := NewDB(Config{Dialect: "sqlite", DSN: ":memory:"}, tenant.Config{Enabled: enabled})

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

func seedUsers(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	ctxA := tenant.WithTenant(context.Background(), "100001")
	ctxB := tenant.WithTenant(context.Background(), "100002")

	require.NoError(t, gdb.WithContext(ctxA).Create(&model.User{Username: "alice"}).Error)
	require.NoError(t, gdb.WithContext(ctxB).Create(&model.User{Username: "bob"}).Error)
}

func TestTenantIsolationRoundTrip(t *testing.T) {
	gdb := newTestDB(t, true)
	seedUsers(t, gdb)

	t.Run("reads are scoped to the active tenant", func(t *testing.T) {
		ctxA := tenant.WithTenant(context.Background(), "100001")
		ctxB := tenant.WithTenant(context.Background(), "100002")

		var users []model.User
		require.NoError(t, gdb.WithContext(ctxA).Find(&users).Error)
		require.Len(t, users, 1)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "100001", users[0].TenantID)

		users = nil
		require.NoError(t, gdb.WithContext(ctxB).Find(&users).Error)
		require.Len(t, users, 1)
		assert.Equal(t, "bob", users[0].Username)
	})

	t.Run("ignored scope observes all tenants", func(t *testing.T) {
		ctx := tenant.WithIgnored(context.Background())

		var users []model.User
		require.NoError(t, gdb.WithContext(ctx).Find(&users).Error)
		assert.Len(t, users, 2)
	})

	t.Run("no scope applies no predicate", func(t *testing.T) {
		var users []model.User
		require.NoError(t, gdb.WithContext(context.Background()).Find(&users).Error)
		assert.Len(t, users, 2)
	})
}

func TestTenantStampOnCreate(t *testing.T) {
	gdb := newTestDB(t, true)

	ctx := tenant.WithTenant(context.Background(), "100001")

	t.Run("stamps missing tenant id", func(t *testing.T) {
		user := &model.User{Username: "carol"}
		require.NoError(t, gdb.WithContext(ctx).Create(user).Error)
		assert.Equal(t, "100001", user.TenantID)
	})

	t.Run("keeps explicit tenant id", func(t *testing.T) {
		user := &model.User{Username: "dave"}
		user.TenantID = "100009"
		require.NoError(t, gdb.WithContext(ctx).Create(user).Error)
		assert.Equal(t, "100009", user.TenantID)
	})

	t.Run("stamps every element of a batch insert", func(t *testing.T) {
		users := []model.User{{Username: "eve"}, {Username: "frank"}}
		require.NoError(t, gdb.WithContext(ctx).Create(&users).Error)
		assert.Equal(t, "100001", users[0].TenantID)
		assert.Equal(t, "100001", users[1].TenantID)
	})
}

func TestTenantScopeOnUpdateAndDelete(t *testing.T) {
	gdb := newTestDB(t, true)
	seedUsers(t, gdb)

	ctxA := tenant.WithTenant(context.Background(), "100001")

	// An update issued under tenant A must not touch tenant B's rows.
	res := gdb.WithContext(ctxA).Model(&model.User{}).
		Where("username IN ?", []string{"alice", "bob"}).
		Update("nickname", "renamed")
	require.NoError(t, res.Error)
	assert.Equal(t, int64(1), res.RowsAffected)

	// Same for deletes.
	res = gdb.WithContext(ctxA).
		Where("username IN ?", []string{"alice", "bob"}).
		Delete(&model.User{})
	require.NoError(t, res.Error)
	assert.Equal(t, int64(1), res.RowsAffected)

	var remaining []model.User
	require.NoError(t, gdb.WithContext(tenant.WithIgnored(context.Background())).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "bob", remaining[0].Username)
}

func TestTenancyDisabled(t *testing.T) {
	gdb := newTestDB(t, false)

	ctxA := tenant.WithTenant(context.Background(), "100001")
	require.NoError(t, gdb.WithContext(ctxA).Create(&model.User{Username: "alice"}).Error)

	// With tenancy disabled nothing is stamped and nothing is filtered.
	var users []model.User
	require.NoError(t, gdb.WithContext(tenant.WithTenant(context.Background(), "100002")).Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "", users[0].TenantID)
}

func TestUnscopedModelUnaffected(t *testing.T) {
	gdb := newTestDB(t, true)

	ctxA := tenant.WithTenant(context.Background(), "100001")
	require.NoError(t, gdb.WithContext(ctxA).Create(&model.Tenant{TenantID: "100002", CompanyName: "acme"}).Error)

	var tenants []model.Tenant
	require.NoError(t, gdb.WithContext(tenant.WithTenant(context.Background(), "100009")).Find(&tenants).Error)
	assert.Len(t, tenants, 1)
}
