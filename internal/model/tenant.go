package model

import "time"

// DefaultTenantID is the administrative tenant. It is never expired and is
// the source of record for dictionary synchronization.
const DefaultTenantID = "000000"

// Tenant is a customer isolation boundary within the shared schema.
type Tenant struct {
	Base

	TenantID    string     `gorm:"uniqueIndex;size:20" json:"tenantId"`
	CompanyName string     `gorm:"size:100" json:"companyName"`
	Status      Status     `gorm:"size:20;default:enabled" json:"status"`
	ExpireAt    *time.Time `json:"expireAt"`
}

func (Tenant) TableName() string {
	return "sys_tenant"
}

// IsDefault reports whether this is the administrative tenant.
func (t *Tenant) IsDefault() bool {
	return t.TenantID == DefaultTenantID
}

// Expired reports whether the tenant subscription has lapsed.
// The default tenant never expires.
func (t *Tenant) Expired(now time.Time) bool {
	if t.IsDefault() || t.ExpireAt == nil {
		return false
	}

	return t.ExpireAt.Before(now)
}
