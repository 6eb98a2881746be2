package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/orgtree"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

func newResolverForTest(t *testing.T) (*DataScopeResolver, *DeptService, *gorm.DB) {
	t.Helper()

	gdb := newTestDB(t)
	deptSvc := newDeptServiceForTest(gdb)

	resolver := NewDataScopeResolver(DataScopeResolverParams{
		DB:          gdb,
		DeptService: deptSvc,
		Cache:       deptSvc.scopeCache,
	})

	return resolver, deptSvc, gdb
}

func seedRole(t *testing.T, gdb *gorm.DB, ctx context.Context, id int64, scope model.DataScope, deptIDs ...int64) *model.Role {
	t.Helper()

	role := &model.Role{
		TenantBase: model.TenantBase{Base: model.Base{ID: id}},
		Name:       "role",
		Key:        "role",
		DataScope:  scope,
		Status:     model.StatusEnabled,
	}
	require.NoError(t, gdb.WithContext(ctx).Create(role).Error)

	for _, deptID := range deptIDs {
		err := gdb.WithContext(ctx).
			Exec("INSERT INTO sys_role_dept (role_id, dept_id) VALUES (?, ?)", id, deptID).Error
		require.NoError(t, err)
	}

	return role
}

func TestDataScopeResolver_All(t *testing.T) {
	resolver, _, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	role := seedRole(t, gdb, ctx, 1, model.DataScopeAll)

	result, err := resolver.ResolveRole(ctx, role, 100)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, result.Kind)
	assert.True(t, result.AllowsDept(999))
}

func TestDataScopeResolver_CustomEmptyDeniesInsteadOfWidening(t *testing.T) {
	resolver, _, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	role := seedRole(t, gdb, ctx, 1, model.DataScopeCustom)

	result, err := resolver.ResolveRole(ctx, role, 100)
	require.NoError(t, err)
	assert.Equal(t, ScopeNone, result.Kind)
	assert.False(t, result.AllowsDept(100))
}

func TestDataScopeResolver_CustomGrantsExactlyTheAssignedDepts(t *testing.T) {
	resolver, deptSvc, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	seedDept(t, deptSvc, ctx, 100, orgtree.RootParentID, "A")
	seedDept(t, deptSvc, ctx, 200, orgtree.RootParentID, "B")

	role := seedRole(t, gdb, ctx, 1, model.DataScopeCustom, 100, 200)

	result, err := resolver.ResolveRole(ctx, role, 999)
	require.NoError(t, err)
	assert.Equal(t, ScopeDepts, result.Kind)
	assert.ElementsMatch(t, []int64{100, 200}, result.DeptIDs)
	assert.False(t, result.AllowsDept(999))
}

func TestDataScopeResolver_DeptAndChildContainsDept(t *testing.T) {
	resolver, deptSvc, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	root := seedDept(t, deptSvc, ctx, 100, orgtree.RootParentID, "HQ")
	child := seedDept(t, deptSvc, ctx, 101, root.ID, "Engineering")
	grandchild := seedDept(t, deptSvc, ctx, 102, child.ID, "Platform")

	deptRole := seedRole(t, gdb, ctx, 1, model.DataScopeDept)
	subtreeRole := seedRole(t, gdb, ctx, 2, model.DataScopeDeptChild)

	deptOnly, err := resolver.ResolveRole(ctx, deptRole, root.ID)
	require.NoError(t, err)

	subtree, err := resolver.ResolveRole(ctx, subtreeRole, root.ID)
	require.NoError(t, err)

	// The subtree grant is a superset of the plain dept grant.
	for _, id := range deptOnly.DeptIDs {
		assert.Contains(t, subtree.DeptIDs, id)
	}

	assert.ElementsMatch(t, []int64{root.ID, child.ID, grandchild.ID}, subtree.DeptIDs)
}

func TestDataScopeResolver_UnionShortCircuitsOnAll(t *testing.T) {
	resolver, _, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	allRole := seedRole(t, gdb, ctx, 1, model.DataScopeAll)
	selfRole := seedRole(t, gdb, ctx, 2, model.DataScopeSelf)

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		DeptID:     100,
		Roles:      []model.Role{*selfRole, *allRole},
	}

	result, err := resolver.ResolveForUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, result.Kind)
}

func TestDataScopeResolver_UnionMergesDeptSets(t *testing.T) {
	resolver, deptSvc, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	seedDept(t, deptSvc, ctx, 100, orgtree.RootParentID, "A")
	seedDept(t, deptSvc, ctx, 200, orgtree.RootParentID, "B")

	customRole := seedRole(t, gdb, ctx, 1, model.DataScopeCustom, 200)
	deptRole := seedRole(t, gdb, ctx, 2, model.DataScopeDept)

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		DeptID:     100,
		Roles:      []model.Role{*customRole, *deptRole},
	}

	result, err := resolver.ResolveForUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, ScopeDepts, result.Kind)
	assert.ElementsMatch(t, []int64{100, 200}, result.DeptIDs)
}

func TestDataScopeResolver_CheckScope(t *testing.T) {
	resolver, _, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	selfRole := seedRole(t, gdb, ctx, 1, model.DataScopeSelf)

	user := &model.User{
		TenantBase: model.TenantBase{Base: model.Base{ID: 10}},
		DeptID:     100,
		Roles:      []model.Role{*selfRole},
	}

	ok, err := resolver.CheckScope(ctx, user, 100, user.ID)
	require.NoError(t, err)
	assert.True(t, ok, "self scope grants own records")

	ok, err = resolver.CheckScope(ctx, user, 100, 999)
	require.NoError(t, err)
	assert.False(t, ok, "self scope denies other users' records")
}

func TestDataScopeResolver_SuperuserBypassesResolution(t *testing.T) {
	resolver, _, _ := newResolverForTest(t)

	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)
	ctx = authz.NewUserContext(ctx, 10, model.DefaultTenantID, true)

	// No roles at all: resolution would deny, the bypass grants.
	user := &model.User{TenantBase: model.TenantBase{Base: model.Base{ID: 10}}}

	ok, err := resolver.CheckScope(ctx, user, 999, 999)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDataScopeResolver_CacheInvalidatedByReparent(t *testing.T) {
	resolver, deptSvc, gdb := newResolverForTest(t)
	ctx := tenant.WithTenant(context.Background(), model.DefaultTenantID)

	root := seedDept(t, deptSvc, ctx, 100, orgtree.RootParentID, "HQ")
	seedDept(t, deptSvc, ctx, 101, root.ID, "Engineering")
	outside := seedDept(t, deptSvc, ctx, 200, orgtree.RootParentID, "Outside")

	role := seedRole(t, gdb, ctx, 1, model.DataScopeDeptChild)

	before, err := resolver.ResolveRole(ctx, role, root.ID)
	require.NoError(t, err)
	assert.NotContains(t, before.DeptIDs, outside.ID)

	require.NoError(t, deptSvc.Reparent(ctx, outside.ID, root.ID))

	after, err := resolver.ResolveRole(ctx, role, root.ID)
	require.NoError(t, err)
	assert.Contains(t, after.DeptIDs, outside.ID, "stale cache survived the tree mutation")
}
