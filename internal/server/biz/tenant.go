package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lyfdddd/ryadmin/internal/model"
	"github.com/lyfdddd/ryadmin/internal/tenant"
)

type TenantServiceParams struct {
	fx.In

	DB           *gorm.DB
	TenantConfig tenant.Config
}

// TenantService manages tenants and validates them during login.
type TenantService struct {
	*AbstractService

	cfg tenant.Config
}

func NewTenantService(params TenantServiceParams) *TenantService {
	return &TenantService{
		AbstractService: &AbstractService{db: params.DB},
		cfg:             params.TenantConfig,
	}
}

// GetByTenantID looks a tenant up by its external id.
func (s *TenantService) GetByTenantID(ctx context.Context, tenantID string) (*model.Tenant, error) {
	var t model.Tenant

	err := s.dbFromContext(ctx).Where("tenant_id = ?", tenantID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrTenantNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &t, nil
}

// ListTenantIDs returns the ids of every tenant. Used by cross-tenant
// synchronization.
func (s *TenantService) ListTenantIDs(ctx context.Context) ([]string, error) {
	var ids []string

	err := s.dbFromContext(ctx).Model(&model.Tenant{}).
		Where("status = ?", model.StatusEnabled).
		Order("tenant_id").
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	return ids, nil
}

// Validate checks the tenant a login attempt targets. When tenancy is
// disabled the check is a no-op and the default tenant applies.
func (s *TenantService) Validate(ctx context.Context, tenantID string) (string, error) {
	if !s.cfg.Enabled {
		return model.DefaultTenantID, nil
	}

	if tenantID == "" {
		tenantID = model.DefaultTenantID
	}

	t, err := s.GetByTenantID(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if t.Status != model.StatusEnabled {
		return "", fmt.Errorf("tenant %s: %w", tenantID, ErrTenantDisabled)
	}

	if t.Expired(time.Now()) {
		return "", fmt.Errorf("tenant %s: %w", tenantID, ErrTenantExpired)
	}

	return t.TenantID, nil
}

// DisableExpired flips every enabled tenant whose subscription lapsed
// before now to disabled, and returns the ids it touched. The default
// tenant never expires.
func (s *TenantService) DisableExpired(ctx context.Context, now time.Time) ([]string, error) {
	db := s.dbFromContext(ctx)

	var ids []string

	err := db.Model(&model.Tenant{}).
		Where("status = ?", model.StatusEnabled).
		Where("tenant_id <> ?", model.DefaultTenantID).
		Where("expire_at IS NOT NULL AND expire_at < ?", now).
		Pluck("tenant_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired tenants: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	err = db.Model(&model.Tenant{}).
		Where("tenant_id IN ?", ids).
		Update("status", model.StatusDisabled).Error
	if err != nil {
		return nil, fmt.Errorf("failed to disable expired tenants: %w", err)
	}

	return ids, nil
}

// CreateTenant registers a tenant.
func (s *TenantService) CreateTenant(ctx context.Context, t *model.Tenant) error {
	if err := s.dbFromContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}
