package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/model"
)

type RoleServiceParams struct {
	fx.In

	DB          *gorm.DB
	UserService *UserService
	ScopeCache  *DataScopeCache
	Aggregator  *PermissionAggregator
}

// RoleService manages roles, their data-scope configuration, and their
// menu grants.
type RoleService struct {
	*AbstractService

	userService *UserService
	scopeCache  *DataScopeCache
	aggregator  *PermissionAggregator
}

func NewRoleService(params RoleServiceParams) *RoleService {
	return &RoleService{
		AbstractService: &AbstractService{db: params.DB},
		userService:     params.UserService,
		scopeCache:      params.ScopeCache,
		aggregator:      params.Aggregator,
	}
}

func (s *RoleService) GetRole(ctx context.Context, id int64) (*model.Role, error) {
	var role model.Role

	if err := s.dbFromContext(ctx).First(&role, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return &role, nil
}

func (s *RoleService) CreateRole(ctx context.Context, role *model.Role) error {
	if err := s.dbFromContext(ctx).Create(role).Error; err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

func (s *RoleService) ListRoles(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role

	err := s.dbFromContext(ctx).
		Order("order_num, id").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

// UpdateDataScope changes how a role sees rows. For custom scopes the
// explicit department grant set is replaced; for every other kind it is
// cleared. Resolved scopes for the role become stale and are dropped.
func (s *RoleService) UpdateDataScope(ctx context.Context, roleID int64, scope model.DataScope, deptIDs []int64) error {
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}

		err = s.dbFromContext(ctx).Model(role).
			Update("data_scope", scope).Error
		if err != nil {
			return fmt.Errorf("failed to update data scope: %w", err)
		}

		depts := make([]model.Dept, len(deptIDs))
		for i, id := range deptIDs {
			depts[i] = model.Dept{TenantBase: model.TenantBase{Base: model.Base{ID: id}}}
		}

		if scope != model.DataScopeCustom {
			depts = nil
		}

		err = s.dbFromContext(ctx).Model(role).
			Association("Depts").Replace(depts)
		if err != nil {
			return fmt.Errorf("failed to replace scope depts: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.scopeCache.InvalidateRole(ctx, roleID)
	// Cached users carry preloaded roles; resolution reads DataScope off
	// that copy, so the stale entries would repopulate the scope cache.
	s.userService.ClearUserCache(ctx)

	return nil
}

// AssignMenus replaces a role's menu grants. Every user holding the role
// has a stale permission set afterwards, so the aggregator cache is
// cleared wholesale.
func (s *RoleService) AssignMenus(ctx context.Context, roleID int64, menuIDs []int64) error {
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}

		menus := make([]model.Menu, len(menuIDs))
		for i, id := range menuIDs {
			menus[i] = model.Menu{Base: model.Base{ID: id}}
		}

		err = s.dbFromContext(ctx).Model(role).
			Association("Menus").Replace(menus)
		if err != nil {
			return fmt.Errorf("failed to replace role menus: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.aggregator.InvalidateAll(ctx)

	return nil
}

// UpdateRoleStatus enables or disables a role. Sessions already issued
// are unaffected until their permission sets expire.
func (s *RoleService) UpdateRoleStatus(ctx context.Context, roleID int64, status model.Status) error {
	err := s.dbFromContext(ctx).Model(&model.Role{}).
		Where("id = ?", roleID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update role status: %w", err)
	}

	s.aggregator.InvalidateAll(ctx)
	s.userService.ClearUserCache(ctx)

	return nil
}

// DeleteRole removes a role together with its user, dept and menu
// assignments.
func (s *RoleService) DeleteRole(ctx context.Context, roleID int64) error {
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		role, err := s.GetRole(ctx, roleID)
		if err != nil {
			return err
		}

		gdb := s.dbFromContext(ctx)

		if err := gdb.Model(role).Association("Depts").Clear(); err != nil {
			return fmt.Errorf("failed to clear role depts: %w", err)
		}

		if err := gdb.Model(role).Association("Menus").Clear(); err != nil {
			return fmt.Errorf("failed to clear role menus: %w", err)
		}

		if err := gdb.Exec("DELETE FROM sys_user_role WHERE role_id = ?", roleID).Error; err != nil {
			return fmt.Errorf("failed to clear role users: %w", err)
		}

		if err := gdb.Delete(role).Error; err != nil {
			return fmt.Errorf("failed to delete role: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.scopeCache.InvalidateRole(ctx, roleID)
	s.aggregator.InvalidateAll(ctx)
	s.userService.ClearUserCache(ctx)

	return nil
}
