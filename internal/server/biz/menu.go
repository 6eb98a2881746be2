package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/model"
)

type MenuServiceParams struct {
	fx.In

	DB *gorm.DB
}

// MenuService manages the menu tree and the permission strings attached
// to menu entries. Menus are shared across tenants.
type MenuService struct {
	*AbstractService
}

func NewMenuService(params MenuServiceParams) *MenuService {
	return &MenuService{
		AbstractService: &AbstractService{db: params.DB},
	}
}

func (s *MenuService) GetMenu(ctx context.Context, id int64) (*model.Menu, error) {
	var menu model.Menu

	if err := s.dbFromContext(ctx).First(&menu, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get menu: %w", err)
	}

	return &menu, nil
}

func (s *MenuService) CreateMenu(ctx context.Context, menu *model.Menu) error {
	if err := s.dbFromContext(ctx).Create(menu).Error; err != nil {
		return fmt.Errorf("failed to create menu: %w", err)
	}

	return nil
}

func (s *MenuService) ListMenus(ctx context.Context) ([]model.Menu, error) {
	var menus []model.Menu

	err := s.dbFromContext(ctx).
		Order("order_num, id").
		Find(&menus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list menus: %w", err)
	}

	return menus, nil
}

// PermsByRoleIDs returns the non-empty permission strings of every menu
// assigned to any of the given roles.
func (s *MenuService) PermsByRoleIDs(ctx context.Context, roleIDs []int64) ([]string, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	var perms []string

	err := s.dbFromContext(ctx).
		Table("sys_menu").
		Joins("JOIN sys_role_menu ON sys_role_menu.menu_id = sys_menu.id").
		Where("sys_role_menu.role_id IN ?", roleIDs).
		Where("sys_menu.perms <> ''").
		Distinct().
		Pluck("sys_menu.perms", &perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load role perms: %w", err)
	}

	return perms, nil
}
