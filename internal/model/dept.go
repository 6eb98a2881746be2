package model

// Dept is an organizational unit. The tree topology is kept both as
// parent-id edges and as a materialized ancestor path, maintained by the
// orgtree algorithms.
type Dept struct {
	TenantBase

	ParentID  int64  `gorm:"index" json:"parentId"`
	Ancestors string `gorm:"size:500" json:"ancestors"`
	Name      string `gorm:"size:64" json:"name"`
	OrderNum  int    `json:"orderNum"`
	Leader    string `gorm:"size:64" json:"leader"`
	Status    Status `gorm:"size:20;default:enabled" json:"status"`
}

func (Dept) TableName() string {
	return "sys_dept"
}

func (d Dept) NodeID() int64 { return d.ID }
func (d Dept) NodeParentID() int64 { return d.ParentID }
func (d Dept) NodeAncestors() string { return d.Ancestors }
