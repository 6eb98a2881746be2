package biz

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/authz"
	"github.com/lyfdddd/ryadmin/internal/log"
	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

type DictServiceParams struct {
	fx.In

	DB            *gorm.DB
	TenantService *TenantService
}

// DictService manages dictionary types and their labeled values.
// Dictionaries are tenant rows, so each tenant can diverge; the default
// tenant's set is the template new tenants copy from.
type DictService struct {
	*AbstractService

	tenantService *TenantService
}

func NewDictService(params DictServiceParams) *DictService {
	return &DictService{
		AbstractService: &AbstractService{db: params.DB},
		tenantService:   params.TenantService,
	}
}

func (s *DictService) CreateDictType(ctx context.Context, dt *model.DictType) error {
	if err := s.dbFromContext(ctx).Create(dt).Error; err != nil {
		return fmt.Errorf("failed to create dict type: %w", err)
	}

	return nil
}

func (s *DictService) CreateDictData(ctx context.Context, dd *model.DictData) error {
	if err := s.dbFromContext(ctx).Create(dd).Error; err != nil {
		return fmt.Errorf("failed to create dict data: %w", err)
	}

	return nil
}

// ListDictData returns the values of one dictionary type for the current
// tenant, ordered for display.
func (s *DictService) ListDictData(ctx context.Context, dictType string) ([]model.DictData, error) {
	var data []model.DictData

	err := s.dbFromContext(ctx).
		Where("dict_type = ?", dictType).
		Order("sort, id").
		Find(&data).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list dict data: %w", err)
	}

	return data, nil
}

// SyncToAllTenants copies the default tenant's dictionary of the given
// type into every other tenant, replacing what they had. Only a system
// principal may run it: the operation reads without a tenant predicate
// and writes rows it does not own.
func (s *DictService) SyncToAllTenants(ctx context.Context, dictType string) error {
	if err := authz.RequireSystemPrincipal(ctx); err != nil {
		return err
	}

	tenantIDs, err := s.tenantService.ListTenantIDs(ctx)
	if err != nil {
		return err
	}

	// Template read runs with the tenant predicate ignored and pins the
	// default tenant explicitly, so it works from any tenant scope.
	template, err := tenant.RunIgnored(ctx, func(ctx context.Context) ([]model.DictData, error) {
		var data []model.DictData

		err := s.dbFromContext(ctx).
			Where("tenant_id = ?", model.DefaultTenantID).
			Where("dict_type = ?", dictType).
			Order("sort, id").
			Find(&data).Error
		if err != nil {
			return nil, err
		}

		return data, nil
	})
	if err != nil {
		return fmt.Errorf("failed to load template dict: %w", err)
	}

	for _, tenantID := range tenantIDs {
		if tenantID == model.DefaultTenantID {
			continue
		}

		if err := s.replaceDictData(tenant.WithTenant(ctx, tenantID), dictType, template); err != nil {
			return fmt.Errorf("failed to sync dict to tenant %s: %w", tenantID, err)
		}

		log.Debug(ctx, "dict synced",
			log.String("dict_type", dictType),
			log.String("tenant_id", tenantID),
		)
	}

	return nil
}

func (s *DictService) replaceDictData(ctx context.Context, dictType string, template []model.DictData) error {
	return s.RunInTransaction(ctx, func(ctx context.Context) error {
		gdb := s.dbFromContext(ctx)

		if err := gdb.Where("dict_type = ?", dictType).Delete(&model.DictData{}).Error; err != nil {
			return fmt.Errorf("failed to clear dict data: %w", err)
		}

		for _, row := range template {
			copied := model.DictData{
				DictType: row.DictType,
				Label:    row.Label,
				Value:    row.Value,
				Sort:     row.Sort,
			}

			if err := gdb.Create(&copied).Error; err != nil {
				return fmt.Errorf("failed to copy dict data: %w", err)
			}
		}

		return nil
	})
}
