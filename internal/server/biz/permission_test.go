package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

func newAggregatorForTest(t *testing.T) (*PermissionAggregator, *gorm.DB) {
	t.Helper()

	gdb := newTestDB(t)
	menuSvc := NewMenuService(MenuServiceParams{DB: gdb})

	return NewPermissionAggregator(PermissionAggregatorParams{DB: gdb, MenuService: menuSvc}), gdb
}

func seedMenu(t *testing.T, gdb *gorm.DB, ctx context.Context, id int64, perms string) {
	t.Helper()

	menu := &model.Menu{
		Base:   model.Base{ID: id},
		Name:   "menu",
		Perms:  perms,
		Status: model.StatusEnabled,
	}
	require.NoError(t, gdb.WithContext(ctx).Create(menu).Error)
}

func grantMenu(t *testing.T, gdb *gorm.DB, ctx context.Context, roleID, menuID int64) {
	t.Helper()

	err := gdb.WithContext(ctx).
		Exec("INSERT INTO sys_role_menu (role_id, menu_id) VALUES (?, ?)", roleID, menuID).Error
	require.NoError(t, err)
}

func TestPermissionAggregator_UnionsRoleKeysAndMenuPerms(t *testing.T) {
	aggregator, gdb := newAggregatorForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	seedMenu(t, gdb, ctx, 1, "system:user:list")
	seedMenu(t, gdb, ctx, 2, "system:user:edit")
	seedMenu(t, gdb, ctx, 3, "system:role:list")

	admin := seedRole(t, gdb, ctx, 1, model.DataScopeAll)
	viewer := seedRole(t, gdb, ctx, 2, model.DataScopeSelf)

	grantMenu(t, gdb, ctx, 1, 1)
	grantMenu(t, gdb, ctx, 1, 2)
	grantMenu(t, gdb, ctx, 2, 1)
	grantMenu(t, gdb, ctx, 2, 3)

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		Roles:      []model.Role{*admin, *viewer},
	}

	set, err := aggregator.Aggregate(ctx, user)
	require.NoError(t, err)

	// Shared perm appears once.
	assert.ElementsMatch(t, []string{"system:user:list", "system:user:edit", "system:role:list"}, set.Permissions)
	assert.True(t, set.Has("system:user:edit"))
	assert.False(t, set.Has("system:user:delete"))
}

func TestPermissionAggregator_SuperuserGetsWildcard(t *testing.T) {
	aggregator, _ := newAggregatorForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		Roles: []model.Role{{
			Key:    model.SuperadminRoleKey,
			Status: model.StatusEnabled,
		}},
	}

	set, err := aggregator.Aggregate(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, []string{model.SuperadminRoleKey}, set.RoleKeys)
	assert.Equal(t, []string{WildcardPermission}, set.Permissions)
	assert.True(t, set.Has("anything:at:all"))
}

func TestPermissionAggregator_DisabledRolesContributeNothing(t *testing.T) {
	aggregator, gdb := newAggregatorForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	seedMenu(t, gdb, ctx, 1, "system:user:list")

	role := seedRole(t, gdb, ctx, 1, model.DataScopeAll)
	grantMenu(t, gdb, ctx, role.ID, 1)

	disabled := *role
	disabled.Status = model.StatusDisabled

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		Roles:      []model.Role{disabled},
	}

	set, err := aggregator.Aggregate(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, set.RoleKeys)
	assert.Empty(t, set.Permissions)
}

func TestPermissionAggregator_AggregateIsIdempotent(t *testing.T) {
	aggregator, gdb := newAggregatorForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	seedMenu(t, gdb, ctx, 1, "system:user:list")

	role := seedRole(t, gdb, ctx, 1, model.DataScopeAll)
	grantMenu(t, gdb, ctx, role.ID, 1)

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		Roles:      []model.Role{*role},
	}

	first, err := aggregator.Aggregate(ctx, user)
	require.NoError(t, err)

	second, err := aggregator.Aggregate(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
