package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/pkg/xcache"
)

// ScopeKind classifies a resolved data scope.
type ScopeKind string

const (
	// ScopeAll grants unrestricted row visibility.
	ScopeAll ScopeKind = "all"
	// ScopeDepts restricts rows to an explicit department id set.
	ScopeDepts ScopeKind = "depts"
	// ScopeSelf restricts rows to the user's own records.
	ScopeSelf ScopeKind = "self"
	// ScopeNone grants nothing. A custom scope with no departments
	// resolves here rather than silently widening.
	ScopeNone ScopeKind = "none"
)

// ScopeResult is the materialized visibility of one user (or one role).
type ScopeResult struct {
	Kind        ScopeKind `json:"kind"`
	DeptIDs     []int64   `json:"deptIds,omitempty"`
	IncludeSelf bool      `json:"includeSelf,omitempty"`
}

// AllowsDept reports whether rows belonging to the given department are
// visible under this scope.
func (r ScopeResult) AllowsDept(deptID int64) bool {
	if r.Kind == ScopeAll {
		return true
	}

	return r.Kind == ScopeDepts && lo.Contains(r.DeptIDs, deptID)
}

// DataScopeCache holds resolved scope results keyed by role and
// department. Tree mutations and role mutations both invalidate broadly:
// a reparent can widen or narrow any dept_and_child scope, so per-key
// invalidation is not worth tracking.
type DataScopeCache struct {
	cache xcache.Cache[ScopeResult]
}

func NewDataScopeCache() *DataScopeCache {
	return &DataScopeCache{
		cache: xcache.NewMemoryWithOptions[ScopeResult](10*time.Minute, 15*time.Minute),
	}
}

func (c *DataScopeCache) key(roleID, deptID int64) string {
	return fmt.Sprintf("datascope:%d:%d", roleID, deptID)
}

func (c *DataScopeCache) Get(ctx context.Context, roleID, deptID int64) (ScopeResult, bool) {
	result, err := c.cache.Get(ctx, c.key(roleID, deptID))
	if err != nil {
		return ScopeResult{}, false
	}

	return result, true
}

func (c *DataScopeCache) Set(ctx context.Context, roleID, deptID int64, result ScopeResult) {
	if err := c.cache.Set(ctx, c.key(roleID, deptID), result); err != nil {
		log.Warn(ctx, "failed to cache data scope", log.Cause(err))
	}
}

// InvalidateDeptTree drops every cached scope after a tree mutation.
func (c *DataScopeCache) InvalidateDeptTree(ctx context.Context) {
	if err := c.cache.Clear(ctx); err != nil {
		log.Warn(ctx, "failed to clear data scope cache", log.Cause(err))
	}
}

// InvalidateRole drops every cached scope after a role's data scope or
// custom department set changed.
func (c *DataScopeCache) InvalidateRole(ctx context.Context, roleID int64) {
	if err := c.cache.Clear(ctx); err != nil {
		log.Warn(ctx, "failed to clear data scope cache",
			log.Int64("role_id", roleID), log.Cause(err))
	}
}

type DataScopeResolverParams struct {
	fx.In

	DB          *gorm.DB
	DeptService *DeptService
	Cache       *DataScopeCache
}

// DataScopeResolver turns role data-scope declarations into concrete
// department id sets.
type DataScopeResolver struct {
	*AbstractService

	deptService *DeptService
	cache       *DataScopeCache
}

func NewDataScopeResolver(params DataScopeResolverParams) *DataScopeResolver {
	return &DataScopeResolver{
		AbstractService: &AbstractService{db: params.DB},
		deptService:     params.DeptService,
		cache:           params.Cache,
	}
}

// ResolveRole resolves one role's scope relative to the user's home
// department.
func (s *DataScopeResolver) ResolveRole(ctx context.Context, role *model.Role, userDeptID int64) (ScopeResult, error) {
	if cached, ok := s.cache.Get(ctx, role.ID, userDeptID); ok {
		return cached, nil
	}

	result, err := s.resolveRole(ctx, role, userDeptID)
	if err != nil {
		return ScopeResult{}, err
	}

	s.cache.Set(ctx, role.ID, userDeptID, result)

	return result, nil
}

func (s *DataScopeResolver) resolveRole(ctx context.Context, role *model.Role, userDeptID int64) (ScopeResult, error) {
	switch role.DataScope {
	case model.DataScopeAll:
		return ScopeResult{Kind: ScopeAll}, nil

	case model.DataScopeCustom:
		deptIDs, err := s.customDeptIDs(ctx, role.ID)
		if err != nil {
			return ScopeResult{}, err
		}

		if len(deptIDs) == 0 {
			return ScopeResult{Kind: ScopeNone}, nil
		}

		return ScopeResult{Kind: ScopeDepts, DeptIDs: deptIDs}, nil

	case model.DataScopeDept:
		return ScopeResult{Kind: ScopeDepts, DeptIDs: []int64{userDeptID}}, nil

	case model.DataScopeDeptChild:
		childIDs, err := s.deptService.DescendantIDs(ctx, userDeptID)
		if err != nil {
			return ScopeResult{}, err
		}

		return ScopeResult{Kind: ScopeDepts, DeptIDs: append([]int64{userDeptID}, childIDs...)}, nil

	case model.DataScopeSelf:
		return ScopeResult{Kind: ScopeSelf, IncludeSelf: true}, nil

	default:
		return ScopeResult{}, fmt.Errorf("role %d has unknown data scope %q", role.ID, role.DataScope)
	}
}

func (s *DataScopeResolver) customDeptIDs(ctx context.Context, roleID int64) ([]int64, error) {
	var deptIDs []int64

	err := s.dbFromContext(ctx).
		Table("sys_role_dept").
		Where("role_id = ?", roleID).
		Pluck("dept_id", &deptIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load custom scope depts: %w", err)
	}

	return deptIDs, nil
}

// ResolveForUser unions the scopes of all the user's roles. Any role
// with an unrestricted scope short-circuits; a user whose roles all
// resolve empty sees nothing.
func (s *DataScopeResolver) ResolveForUser(ctx context.Context, user *model.User) (ScopeResult, error) {
	union := ScopeResult{Kind: ScopeNone}

	for i := range user.Roles {
		role := &user.Roles[i]

		result, err := s.ResolveRole(ctx, role, user.DeptID)
		if err != nil {
			return ScopeResult{}, err
		}

		switch result.Kind {
		case ScopeAll:
			return ScopeResult{Kind: ScopeAll}, nil
		case ScopeDepts:
			union.Kind = ScopeDepts
			union.DeptIDs = append(union.DeptIDs, result.DeptIDs...)
		case ScopeSelf:
			union.IncludeSelf = true
			if union.Kind == ScopeNone {
				union.Kind = ScopeSelf
			}
		case ScopeNone:
		}
	}

	union.DeptIDs = lo.Uniq(union.DeptIDs)

	return union, nil
}

// CheckScope decides whether the user may touch a row owned by
// ownerUserID in ownerDeptID. Superusers and system principals bypass
// resolution entirely.
func (s *DataScopeResolver) CheckScope(ctx context.Context, user *model.User, ownerDeptID, ownerUserID int64) (bool, error) {
	if authz.IsSuperuser(ctx) || user.IsSuperuser() {
		return true, nil
	}

	scope, err := s.ResolveForUser(ctx, user)
	if err != nil {
		return false, err
	}

	if scope.AllowsDept(ownerDeptID) {
		return true, nil
	}

	if scope.IncludeSelf && ownerUserID == user.ID {
		return true, nil
	}

	return false, nil
}
