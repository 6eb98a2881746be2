// Package model defines the persistent entities of the admin backend.
package model

import "time"

// Status is the enabled/disabled switch shared by several entities.
type Status string

const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
)

// Base carries the columns shared by every table.
type Base struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TenantBase extends Base with the tenant isolation column.
// The tenant scoping plugin recognizes entities embedding it.
type TenantBase struct {
	Base

	TenantID string `gorm:"index;size:20" json:"tenantId"`
}

// GetTenantID implements db.TenantScoped.
func (b TenantBase) GetTenantID() string {
	return b.TenantID
}
